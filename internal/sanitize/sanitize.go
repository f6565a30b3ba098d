// Package sanitize implements the two-stage input pipeline for user-supplied
// text: an ordered list of sanitizing transforms followed by constraint
// validation. Sanitization always runs first, so length limits apply to the
// cleaned value, not the raw one. The pipeline is pure: no I/O, no state.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	scriptBlockRe  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagRe      = regexp.MustCompile(`(?s)<[^>]*>`)
	jsSchemeRe     = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerRe = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// transforms is the fixed, ordered sanitization stage. Script blocks are
// removed before generic tag stripping so their inner text goes with them.
var transforms = []func(string) string{
	stripControlBytes,
	stripScriptBlocks,
	stripHTMLTags,
	stripJavascriptScheme,
	stripEventHandlers,
	strings.TrimSpace,
}

// String runs a value through every sanitization transform in order.
func String(s string) string {
	for _, t := range transforms {
		s = t(s)
	}
	return s
}

// stripControlBytes removes NUL and other control characters, keeping
// ordinary whitespace (tab, newline, carriage return).
func stripControlBytes(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

func stripScriptBlocks(s string) string {
	return scriptBlockRe.ReplaceAllString(s, "")
}

func stripHTMLTags(s string) string {
	return htmlTagRe.ReplaceAllString(s, "")
}

func stripJavascriptScheme(s string) string {
	return jsSchemeRe.ReplaceAllString(s, "")
}

func stripEventHandlers(s string) string {
	return eventHandlerRe.ReplaceAllString(s, "")
}
