package main

import (
	"os"

	"github.com/ekinyavuz/evplan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
