package main

import (
	"os"

	"github.com/traderank/traderank/cmd/traderank/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
