package base

import (
	"bytes"
	"flag"
)

// FlagSet wraps a standard flag set so commands can render flag usage in
// their help output.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet creates a new FlagSet.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help returns the usage text for all defined flags.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	f.FlagSet.SetOutput(&buf)
	f.FlagSet.PrintDefaults()

	if buf.Len() == 0 {
		return ""
	}
	return "\nFlags:\n\n" + buf.String()
}
