package main

import (
	"os"

	"github.com/bianoble/dirctx/cmd/dirctx/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
