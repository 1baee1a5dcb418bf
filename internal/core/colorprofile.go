package core

import (
	"fmt"
	"image/color"
	"strings"
)

// ColorProfile selects the ink color painted on detected strokes
type ColorProfile int

const (
	Black ColorProfile = iota
	Blue
)

// DefaultProfile is used when the caller does not choose one
const DefaultProfile = Black

type profileEntry struct {
	name string
	ink  color.RGBA
}

// New inks are added here; nothing else in the pipeline changes.
var profiles = []profileEntry{
	Black: {name: "black", ink: color.RGBA{R: 0, G: 0, B: 0, A: 255}},
	Blue:  {name: "blue", ink: color.RGBA{R: 0, G: 20, B: 180, A: 255}},
}

// ParseColorProfile maps a profile name (case insensitive) to its value.
// An empty name yields DefaultProfile.
func ParseColorProfile(name string) (ColorProfile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultProfile, nil
	}
	for i, p := range profiles {
		if p.name == name {
			return ColorProfile(i), nil
		}
	}
	return DefaultProfile, fmt.Errorf("%w: unknown ink color %q (choose from %s)",
		ErrInvalidInput, name, strings.Join(ProfileNames(), ", "))
}

// ProfileNames lists every known profile in declaration order
func ProfileNames() []string {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.name
	}
	return names
}

// Valid reports whether p is a declared profile
func (p ColorProfile) Valid() bool {
	return p >= 0 && int(p) < len(profiles)
}

func (p ColorProfile) String() string {
	if !p.Valid() {
		return fmt.Sprintf("ColorProfile(%d)", int(p))
	}
	return profiles[p].name
}

// Ink returns the opaque color painted for p
func (p ColorProfile) Ink() color.RGBA {
	if !p.Valid() {
		return profiles[DefaultProfile].ink
	}
	return profiles[p].ink
}

// Set implements flag.Value so a profile can back a command line flag
func (p *ColorProfile) Set(name string) error {
	return p.UnmarshalText([]byte(name))
}

// UnmarshalText reads a profile name, as found in config files
func (p *ColorProfile) UnmarshalText(text []byte) error {
	v, err := ParseColorProfile(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText writes the profile name, e.g. into JSON log fields
func (p ColorProfile) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, p)
	}
	return []byte(p.String()), nil
}
