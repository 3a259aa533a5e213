package main

import (
	"fmt"
	"os"

	"github.com/temirov/pipegate/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the pipegate command-line application.
func main() {
	if executionError := cli.Execute(os.Args[1:]); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
