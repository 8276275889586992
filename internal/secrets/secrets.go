// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files and
// from dotenv files. In a secrets directory each file is one secret: the
// filename is the key name and the trimmed contents are the value.
//
// Supported key file: places-api-key. Dotenv files use PLACES_API_KEY.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// KeyFile is the secrets-directory entry holding the Places API key.
	KeyFile = "places-api-key"
	// EnvVar is the environment and dotenv variable holding the Places API key.
	EnvVar = "PLACES_API_KEY"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnvFiles parses the given dotenv files without touching the process
// environment. Missing files are skipped; earlier files win on conflicts.
func LoadEnvFiles(paths ...string) (map[string]string, error) {
	out := make(map[string]string)
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		vals, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("parsing env file %s: %w", p, err)
		}
		for k, v := range vals {
			if _, seen := out[k]; !seen && strings.TrimSpace(v) != "" {
				out[k] = strings.TrimSpace(v)
			}
		}
	}
	return out, nil
}

// Sources are the places an API key may come from, highest priority first.
type Sources struct {
	Explicit string            // --api-key flag, config file, or PLACES_SCAN_API_KEY
	Getenv   func(string) string
	Dir      map[string]string // result of Load
	EnvFiles map[string]string // result of LoadEnvFiles
}

// ResolveAPIKey returns the first non-empty key from s and a label naming
// where it came from. It returns "" when no source has a key.
func ResolveAPIKey(s Sources) (key, from string) {
	if v := strings.TrimSpace(s.Explicit); v != "" {
		return v, "flag/config"
	}
	if s.Getenv != nil {
		if v := strings.TrimSpace(s.Getenv(EnvVar)); v != "" {
			return v, "environment"
		}
	}
	if v := s.Dir[KeyFile]; v != "" {
		return v, "secrets directory"
	}
	if v := s.EnvFiles[EnvVar]; v != "" {
		return v, "env file"
	}
	return "", ""
}

// Mask returns the first n characters of key followed by "...".
func Mask(key string, n int) string {
	if len(key) <= n {
		return strings.Repeat("*", len(key))
	}
	return key[:n] + "..."
}
