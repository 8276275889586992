// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zerolog logger shared by every stage.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Format selects the log encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// New returns a logger writing to w at the given level ("debug", "info",
// "warn", "error"). Console format is human-readable without colour codes
// when noColor is set.
func New(w io.Writer, level string, format Format, noColor bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer
	switch format {
	case FormatJSON:
		out = w
	case FormatConsole, "":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: noColor}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q: use console or json", format)
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
