package main

import (
	"os"

	"github.com/uhyunpark/kwhmatch/cmd/mg/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
