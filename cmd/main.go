package main

import (
	"fmt"
	"os"

	"ravenml.io/cli/internal/interfaces/cli"
	"ravenml.io/cli/internal/interfaces/di"
)

func main() {
	container, err := di.NewContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	cli.Execute(container.GetCLIContainer())
}
