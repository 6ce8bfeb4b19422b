package extract

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned when a mode name is not recognized.
var ErrUnknownMode = errors.New("unknown extraction mode")

// Mode selects the extraction strategy.
type Mode int

const (
	// ModeReachable reports literals in reachable positions only.
	ModeReachable Mode = iota
	// ModeCoarse reports every identifier and string token.
	ModeCoarse
)

// String returns the mode name used on the command line.
func (m Mode) String() string {
	switch m {
	case ModeReachable:
		return "reachable"
	case ModeCoarse:
		return "coarse"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reachable":
		return ModeReachable, nil
	case "coarse":
		return ModeCoarse, nil
	default:
		return ModeReachable, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Extractor turns script source into raw string values.
// The zero value extracts in ModeReachable.
type Extractor struct {
	mode Mode
}

// NewExtractor returns an Extractor for mode.
func NewExtractor(mode Mode) Extractor {
	return Extractor{mode: mode}
}

// Mode returns the configured strategy.
func (e Extractor) Mode() Mode {
	return e.mode
}

// Extract parses src and returns its string values in source order.
func (e Extractor) Extract(src []byte) ([]string, error) {
	if e.mode == ModeCoarse {
		return Tokens(src)
	}

	script, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Walk(script), nil
}
