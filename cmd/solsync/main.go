package main

import (
	"os"

	"github.com/perseus-data/solsync/internal/adapters/driving/cli"
)

func main() {
	os.Exit(cli.Execute())
}
