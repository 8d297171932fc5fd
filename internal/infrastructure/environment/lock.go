package environment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// FileLocker serializes install/uninstall operations against one environment
// through an exclusive lock file in the environment directory. There is no
// waiting: a held lock fails the operation immediately, since environment
// mutations are expected to run one at a time.
type FileLocker struct {
	dir string
}

// NewFileLocker creates a locker for the environment rooted at dir
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{dir: expandPath(dir)}
}

func (l *FileLocker) lockPath() string {
	return filepath.Join(l.dir, ".rvn-lock")
}

// Acquire takes the environment lock, returning the release function
func (l *FileLocker) Acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create environment directory: %w", err)
	}

	file, err := os.OpenFile(l.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("environment is locked by another rvn operation (remove %s if stale)", l.lockPath())
		}
		return nil, fmt.Errorf("failed to acquire environment lock: %w", err)
	}

	_, _ = file.WriteString(strconv.Itoa(os.Getpid()))
	file.Close()

	return func() {
		_ = os.Remove(l.lockPath())
	}, nil
}
