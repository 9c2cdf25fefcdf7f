// ABOUTME: Splits assistant replies into transport-safe chunks
// ABOUTME: Prefers paragraph boundaries, falls back to sentences, never mid-sentence

package chunk

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLen is the transport message size limit in code points.
const DefaultMaxLen = 4096

// Split breaks text into ordered chunks of at most maxLen code points each.
// The markdown normalization pass runs first, before any length accounting.
//
// Paragraphs (blank-line separated) are packed greedily; a paragraph that
// cannot fit alone is further split into sentences on terminal punctuation
// followed by whitespace. A single sentence longer than maxLen is emitted
// as its own oversized chunk rather than truncated.
//
// The mapping is pure and deterministic, produces no empty chunks, and
// preserves order.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	text = Normalize(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	appendPiece := func(piece, sep string) {
		if cur.Len() > 0 {
			cur.WriteString(sep)
			curLen += utf8.RuneCountInString(sep)
		}
		cur.WriteString(piece)
		curLen += utf8.RuneCountInString(piece)
	}

	for _, para := range paragraphs(text) {
		paraLen := utf8.RuneCountInString(para)
		sepLen := 0
		if cur.Len() > 0 {
			sepLen = 2 // "\n\n"
		}

		if curLen+sepLen+paraLen <= maxLen {
			appendPiece(para, "\n\n")
			continue
		}

		flush()
		if paraLen <= maxLen {
			appendPiece(para, "\n\n")
			continue
		}

		// Paragraph alone exceeds the limit: pack sentences greedily
		for _, sentence := range sentences(para) {
			sentLen := utf8.RuneCountInString(sentence)
			sepLen = 0
			if cur.Len() > 0 {
				sepLen = 1 // " "
			}

			if curLen+sepLen+sentLen <= maxLen {
				appendPiece(sentence, " ")
				continue
			}

			flush()
			// An oversized sentence passes through unsplit
			appendPiece(sentence, " ")
			if sentLen > maxLen {
				flush()
			}
		}
	}
	flush()

	return chunks
}

// paragraphs splits text on blank lines, dropping empty paragraphs.
func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sentences splits a paragraph on terminal punctuation followed by
// whitespace. The punctuation stays with its sentence.
func sentences(para string) []string {
	var out []string
	var cur strings.Builder

	runes := []rune(para)
	for i, r := range runes {
		cur.WriteRune(r)
		if !isTerminal(r) {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
