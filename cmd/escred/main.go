package main

import (
	"os"

	"github.com/govready/escred/cmd/escred/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
