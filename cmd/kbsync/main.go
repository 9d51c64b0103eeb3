package main

import (
	"os"

	"github.com/veyrane-labs/kbsync/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
