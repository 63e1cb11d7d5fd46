// Package main provides the formants CLI.
//
// Usage:
//
//	formants [flags] <command> [args]
//
// Commands:
//
//	analyze   - Track formants across an audio file
//	envelope  - Print the LPC spectral envelope of one frame
//	version   - Print the build version
//
// Configuration:
//
//	Settings are read from the YAML or JSON file given with --config.
//	Command-line flags override values from the file.
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-formant/cmd/formants/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
