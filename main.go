package main

import (
	"os"

	"github.com/felixgeelhaar/lcovreport/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args, os.Stdout, os.Stderr))
}
