package manifest

import (
	"fmt"
	"strconv"
	"strings"
)

// Constraint restricts the versions a requirement accepts. A zero constraint
// accepts any version.
type Constraint struct {
	Op      string `json:"op,omitempty"`
	Version string `json:"version,omitempty"`
}

var validOps = map[string]bool{"==": true, ">=": true, "<=": true, ">": true, "<": true, "!=": true}

// NewConstraint creates a constraint, validating the operator and version
func NewConstraint(op, version string) (Constraint, error) {
	if !validOps[op] {
		return Constraint{}, fmt.Errorf("unknown constraint operator %q", op)
	}
	if version == "" {
		return Constraint{}, fmt.Errorf("constraint %q requires a version", op)
	}
	return Constraint{Op: op, Version: version}, nil
}

// IsZero reports whether the constraint accepts any version
func (c Constraint) IsZero() bool {
	return c.Op == ""
}

// String renders the constraint in requirement form, e.g. ">=1.16"
func (c Constraint) String() string {
	if c.IsZero() {
		return ""
	}
	return c.Op + c.Version
}

// Satisfies reports whether a version is accepted by the constraint
func (c Constraint) Satisfies(version string) bool {
	if c.IsZero() {
		return true
	}
	cmp := CompareVersions(version, c.Version)
	switch c.Op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	}
	return false
}

// CompareVersions compares two dotted version strings segment by segment.
// Numeric segments compare numerically, anything else lexically; a missing
// segment compares as zero, so "1.2" == "1.2.0". Returns -1, 0, or 1.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var sa, sb string
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}
		if cmp := compareSegment(sa, sb); cmp != 0 {
			return cmp
		}
	}
	return 0
}

func compareSegment(a, b string) int {
	na, aNum := parseNumeric(a)
	nb, bNum := parseNumeric(b)
	if aNum && bNum {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	// Numeric segments sort after non-numeric ones, so "1.0" > "1.rc1"
	if aNum != bNum {
		if aNum {
			return 1
		}
		return -1
	}
	return strings.Compare(a, b)
}

func parseNumeric(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
