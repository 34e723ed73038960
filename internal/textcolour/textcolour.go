// Package textcolour prints classic's "&<code>" colour-tagged chat and log
// text to the console in ANSI, and holds the small table of custom colour
// codes pushed to clients that negotiate the TextColors CPE extension.
// Grounded in original_source/src/util.c's console colour printing, using
// github.com/fatih/color (adopted from nabbar-golib, see SPEC_FULL.md)
// instead of hand-rolled ANSI escapes.
package textcolour

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// codeAttr maps the sixteen classic chat colour codes to a terminal
// attribute, following the standard classic/Minecraft colour palette.
var codeAttr = map[byte]color.Attribute{
	'0': color.FgBlack,
	'1': color.FgBlue,
	'2': color.FgGreen,
	'3': color.FgCyan,
	'4': color.FgRed,
	'5': color.FgMagenta,
	'6': color.FgYellow,
	'7': color.FgWhite,
	'8': color.FgHiBlack,
	'9': color.FgHiBlue,
	'a': color.FgHiGreen,
	'b': color.FgHiCyan,
	'c': color.FgHiRed,
	'd': color.FgHiMagenta,
	'e': color.FgHiYellow,
	'f': color.FgHiWhite,
}

// Enabled toggles ANSI output globally; set false by the -C flag.
var Enabled = true

// Print writes s to stdout, translating every "&<code>" run into the
// matching ANSI colour and stripping the codes themselves when disabled.
func Print(s string) {
	fmt.Println(Render(s))
}

// Render returns s with "&<code>" sequences converted to ANSI escapes (or
// stripped outright if colour output is disabled).
func Render(s string) string {
	var b strings.Builder
	attr := color.Attribute(0)
	haveAttr := false
	i := 0
	segStart := 0

	flush := func(end int) {
		if end <= segStart {
			return
		}
		chunk := s[segStart:end]
		if Enabled && haveAttr {
			b.WriteString(color.New(attr).Sprint(chunk))
		} else {
			b.WriteString(chunk)
		}
	}

	for i < len(s) {
		if s[i] == '&' && i+1 < len(s) {
			if a, ok := codeAttr[lower(s[i+1])]; ok {
				flush(i)
				attr, haveAttr = a, true
				i += 2
				segStart = i
				continue
			}
		}
		i++
	}
	flush(len(s))
	return b.String()
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// Custom is one custom colour configured for push over the TextColors CPE
// extension's SetTextColor packet.
type Custom struct {
	Code byte  `yaml:"code"`
	R    uint8 `yaml:"r"`
	G    uint8 `yaml:"g"`
	B    uint8 `yaml:"b"`
	A    uint8 `yaml:"a"`
}
