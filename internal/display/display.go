// Package display holds helpers for the legacy unstructured display
// directives some bobbycar firmware revisions still emit. The hub does not
// route these; it only renders them into something readable for the log.
package display

import (
	"fmt"
	"strconv"
)

// RGBToHex formats an 8-bit-per-channel color as a #rrggbb string.
func RGBToHex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// RGB565ToHex expands a 16-bit 5-6-5 color to its 8-bit hex form. The low
// bits are left at zero, matching the display firmware's own expansion.
func RGB565ToHex(v uint16) string {
	r := uint8((v >> 11) & 0x1f)
	g := uint8((v >> 5) & 0x3f)
	b := uint8(v & 0x1f)
	return RGBToHex(r<<3, g<<2, b<<3)
}

// DescribeDirective renders a legacy display directive for logging. A
// directive that is a bare rgb565 integer is annotated with its color; any
// other directive is returned as-is.
func DescribeDirective(s string) string {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%s (%s)", s, RGB565ToHex(uint16(v)))
}
