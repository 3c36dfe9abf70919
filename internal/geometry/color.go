package geometry

import (
	"strconv"
	"strings"
)

// ColorCode is an index into the fixed seven-entry CAD palette.
type ColorCode int

// The palette is a stable contract with clients and must not change.
const (
	Red     ColorCode = 1
	Yellow  ColorCode = 2
	Green   ColorCode = 3
	Cyan    ColorCode = 4
	Blue    ColorCode = 5
	Magenta ColorCode = 6
	White   ColorCode = 7
)

var colorNames = [...]string{
	Red:     "Red",
	Yellow:  "Yellow",
	Green:   "Green",
	Cyan:    "Cyan",
	Blue:    "Blue",
	Magenta: "Magenta",
	White:   "White",
}

// Palette returns the colour codes in index order.
func Palette() []ColorCode {
	return []ColorCode{Red, Yellow, Green, Cyan, Blue, Magenta, White}
}

// Valid reports whether c is one of the seven palette entries.
func (c ColorCode) Valid() bool {
	return c >= Red && c <= White
}

// Name returns the palette name, or "" for codes outside the palette.
func (c ColorCode) Name() string {
	if !c.Valid() {
		return ""
	}
	return colorNames[c]
}

func (c ColorCode) String() string {
	if n := c.Name(); n != "" {
		return n
	}
	return "ColorCode(" + strconv.Itoa(int(c)) + ")"
}

// ParseColorCode decodes a raw integer into a palette colour.
func ParseColorCode(v int) (ColorCode, bool) {
	c := ColorCode(v)
	if !c.Valid() {
		return 0, false
	}
	return c, true
}

// ColorByName looks up a palette colour by its English name, ignoring case.
func ColorByName(name string) (ColorCode, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Palette() {
		if strings.EqualFold(colorNames[c], name) {
			return c, true
		}
	}
	return 0, false
}
