// Package corpus loads the static, ordered list of popular domains that
// seeds address-bar suggestions before any history exists.
package corpus

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// ErrResourceUnavailable means the corpus file is missing or unreadable.
// It is logged and absorbed by Load; callers never see it.
var ErrResourceUnavailable = errors.New("corpus resource unavailable")

//go:embed topdomains.txt
var bundled string

// Default returns the corpus compiled into the binary.
func Default() []string {
	return Parse(bundled)
}

// Load reads a newline-delimited domain list from path. On any read
// failure it logs and returns an empty corpus; the browser still works
// with zero static suggestions.
func Load(path string, logger *zap.Logger) []string {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := read(path)
	if err != nil {
		logger.Warn("corpus not loaded, continuing without static suggestions",
			zap.String("path", path), zap.Error(err))
		return []string{}
	}

	domains := Parse(string(data))
	logger.Debug("corpus loaded", zap.String("path", path), zap.Int("domains", len(domains)))
	return domains
}

// Resolve returns the corpus at path, or the bundled corpus when path is empty.
func Resolve(path string, logger *zap.Logger) []string {
	if path == "" {
		return Default()
	}
	return Load(path, logger)
}

func read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResourceUnavailable, err)
	}
	return data, nil
}

// Parse splits content on newlines, keeping file order. Blank lines and
// trailing carriage returns are dropped; duplicates are kept.
func Parse(content string) []string {
	lines := strings.Split(content, "\n")
	domains := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		domains = append(domains, line)
	}
	return domains
}
