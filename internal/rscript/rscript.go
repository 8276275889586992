// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rscript converts CSV output into an R data file. It runs Rscript
// locally when it is on PATH and otherwise inside a container image that
// ships R with readr.
package rscript

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/places-scan/internal/container"
)

const binRscript = "Rscript"

// DefaultImage is the container image used when Rscript is not installed.
const DefaultImage = "rocker/tidyverse:latest"

// csvToRDS reads a CSV on stdin and writes the serialized data frame to
// stdout. Both streams are piped so the same program works locally and in
// a container without bind mounts.
const csvToRDS = `suppressMessages(library(readr));` +
	`df <- read_csv(file("stdin"), show_col_types = FALSE);` +
	`out <- pipe("cat", "wb"); saveRDS(df, out); close(out)`

// Converter runs the CSV to RDS program.
type Converter struct {
	exec   container.Executor
	image  string
	detect func(container.Executor) (container.Runtime, error)
}

// New returns a Converter using exec for local runs and runtime detection.
// An empty image selects DefaultImage.
func New(exec container.Executor, image string) *Converter {
	if image == "" {
		image = DefaultImage
	}
	return &Converter{exec: exec, image: image, detect: container.DetectRuntime}
}

// Backend reports where the conversion will run: "Rscript", a container
// runtime name, or an error when neither is usable.
func (c *Converter) Backend() (string, error) {
	if _, err := c.exec.LookPath(binRscript); err == nil {
		return binRscript, nil
	}
	rt, err := c.detect(c.exec)
	if err != nil {
		return "", fmt.Errorf("%s not on PATH and %w", binRscript, err)
	}
	return rt.Name(), nil
}

// CSVToRDS converts the CSV at csvPath and writes rdsPath. The output is
// written to a temporary file in the same directory and renamed into place,
// so an existing rdsPath is never left truncated.
func (c *Converter) CSVToRDS(csvPath, rdsPath string) error {
	in, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("opening CSV %s: %w", csvPath, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(rdsPath), ".rds-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", rdsPath, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	runErr := c.run(in, tmp)
	closeErr := tmp.Close()
	if runErr != nil {
		return fmt.Errorf("converting %s to RDS: %w", csvPath, runErr)
	}
	if closeErr != nil {
		return fmt.Errorf("writing %s: %w", tmpName, closeErr)
	}

	info, err := os.Stat(tmpName)
	if err != nil {
		return fmt.Errorf("checking RDS output: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("R produced empty output for %s", csvPath)
	}

	if err := os.Rename(tmpName, rdsPath); err != nil {
		return fmt.Errorf("renaming RDS output: %w", err)
	}
	return nil
}

func (c *Converter) run(in *os.File, out *os.File) error {
	if _, err := c.exec.LookPath(binRscript); err == nil {
		return c.exec.RunPiped(binRscript, []string{"-e", csvToRDS}, in, out)
	}

	rt, err := c.detect(c.exec)
	if err != nil {
		return fmt.Errorf("%s not on PATH and %w", binRscript, err)
	}
	if err := rt.ImageExists(c.image); err != nil {
		return fmt.Errorf("R image not available in %s: %w", rt.Name(), err)
	}
	return rt.Run(c.image, []string{binRscript, "-e", csvToRDS}, in, out)
}
