// Package chunk splits assistant replies into transport-safe pieces.
//
// Split is a pure function: markdown normalization runs first, then
// paragraphs are packed greedily up to the length limit, falling back to
// sentence boundaries for paragraphs that cannot fit alone. A single
// sentence longer than the limit passes through as its own oversized
// chunk rather than being truncated mid-sentence. Lengths are counted in
// code points, not bytes.
package chunk
