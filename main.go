package main

import (
	"os"

	"github.com/htmlssg/htmlssg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
