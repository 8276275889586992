//go:build mage

package main

import (
	"os"
	"strings"

	"github.com/magefile/mage/sh"
)

// Scan runs the full survey with the default outputs. Extra CLI flags are
// read from SCAN_ARGS (e.g. SCAN_ARGS="--sinks csv,yaml --timestamp").
func Scan() error {
	ensureBuilt()
	return sh.RunV(binPath(), append([]string{"scan"}, extraArgs("SCAN_ARGS")...)...)
}

// Grid prints the survey grid without calling the API.
func Grid() error {
	ensureBuilt()
	return sh.RunV(binPath(), append([]string{"grid"}, extraArgs("GRID_ARGS")...)...)
}

func extraArgs(env string) []string {
	return strings.Fields(os.Getenv(env))
}
