// Package output holds small text-formatting helpers shared by the CLI
// commands: padding/coloring for plain (non-table) output and byte-size
// formatting for log size display.
package output

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var ansiRe = regexp.MustCompile(`\x1B\[([0-9]{1,2}(;[0-9]{1,2})?)?[mK]`)

// Decolorise strips ANSI color escapes from a string, so width
// calculations in WithPadding aren't thrown off by invisible bytes.
func Decolorise(str string) string {
	return ansiRe.ReplaceAllString(str, "")
}

// WithPadding right-pads str with spaces up to the given display width,
// measuring width on the decolorised string so ANSI codes don't count
// against the padding.
func WithPadding(str string, padding int) string {
	uncolored := Decolorise(str)
	if padding < runewidth.StringWidth(uncolored) {
		return str
	}
	return str + strings.Repeat(" ", padding-runewidth.StringWidth(uncolored))
}

// ColoredString colors str with the given attribute, treating FgWhite as
// "no color" so light-themed terminals aren't forced into a fixed color.
func ColoredString(str string, colorAttribute color.Attribute) string {
	if colorAttribute == color.FgWhite {
		return str
	}
	return color.New(colorAttribute).SprintFunc()(str)
}

// SplitLines splits a multiline string (e.g. container log output) on
// newlines, stripping \r and dropping a trailing empty line.
func SplitLines(multilineString string) []string {
	multilineString = strings.ReplaceAll(multilineString, "\r", "")
	if multilineString == "" || multilineString == "\n" {
		return make([]string, 0)
	}
	lines := strings.Split(multilineString, "\n")
	if lines[len(lines)-1] == "" {
		return lines[:len(lines)-1]
	}
	return lines
}

// FormatBinaryBytes renders a byte count using binary (1024-based) units,
// used when reporting log sizes.
func FormatBinaryBytes(b int) string {
	n := float64(b)
	units := []string{"B", "kiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB", "YiB"}
	for _, unit := range units {
		if n >= math.Pow(2, 10) {
			n /= math.Pow(2, 10)
			continue
		}
		val := fmt.Sprintf("%.2f%s", n, unit)
		if val == "0.00B" {
			return "0B"
		}
		return val
	}
	return "a lot"
}

// FormatMap renders a string map as an indented, sorted-key block, or
// "none" for an empty map. No command calls it.
func FormatMap(padding int, m map[string]string) string {
	if len(m) == 0 {
		return "none\n"
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("\n")
	for _, key := range keys {
		fmt.Fprintf(&b, "%s%s %v\n", strings.Repeat(" ", padding), ColoredString(key+":", color.FgYellow), m[key])
	}
	return b.String()
}

type multiErr []error

func (m multiErr) Error() string {
	var b bytes.Buffer
	b.WriteString("encountered multiple errors:")
	for _, err := range m {
		b.WriteString("\n\t... " + err.Error())
	}
	return b.String()
}

// CloseMany closes every closer, collecting (rather than short-circuiting
// on) failures, for shutdown paths that hold several resources at once.
func CloseMany(closers []io.Closer) error {
	errs := make([]error, 0, len(closers))
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return multiErr(errs)
	}
	return nil
}
