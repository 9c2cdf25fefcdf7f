// ABOUTME: Markdown normalization for the downstream transport's limited markup
// ABOUTME: Flattens headings, bold markers, and bullets before length accounting

package chunk

import "regexp"

// The transport understands only single-star emphasis and plain bullets, so
// richer markdown coming back from the assistant is rewritten to a flat
// style. The substitutions are order-sensitive: headings first (their text
// may contain bold markers), then bullets (a leading "* " would otherwise
// read as an emphasis opener), then bold.
var normalizations = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+?)[ \t]*$`), `*$1*`},
	{regexp.MustCompile(`(?m)^[ \t]*[-*][ \t]+`), `• `},
	{regexp.MustCompile(`\*\*(.+?)\*\*`), `*$1*`},
	{regexp.MustCompile(`__(.+?)__`), `*$1*`},
}

// Normalize rewrites markdown heading and bullet markers to the transport's
// flat style. It is a compatibility shim, not a prettifier, and must run
// before chunk length accounting.
func Normalize(text string) string {
	for _, n := range normalizations {
		text = n.re.ReplaceAllString(text, n.repl)
	}
	return text
}
