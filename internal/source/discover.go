package source

import (
	"errors"
	"os"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
)

// ErrNoSource reports that none of the candidate locations yielded a readable
// formulary. It is the only hard failure the loading side surfaces; callers
// must refuse to proceed rather than work from a partial table.
var ErrNoSource = errors.New("no formulary source available")

// Discover tries candidate paths in order and returns the first one that
// exists together with its parser kind.
func Discover(paths []string) (path, kind string, err error) {
	for _, candidate := range paths {
		if candidate == "" {
			continue
		}
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, KindForPath(candidate), nil
		}
	}
	return "", "", ErrNoSource
}

// Load discovers and parses the first readable candidate in one step.
func Load(paths []string) (internal.RawTable, error) {
	path, kind, err := Discover(paths)
	if err != nil {
		return internal.RawTable{}, err
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return internal.RawTable{}, err
	}
	return Parse(kind, blob)
}
