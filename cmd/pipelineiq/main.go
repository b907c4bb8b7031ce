package main

import (
	"os"

	"github.com/pipelineiq/pipelineiq/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
