// Package chunk splits text into overlapping, token-bounded chunks for
// downstream embedding or indexing. Tokens are whitespace-delimited words;
// paragraph boundaries are preferred cut points.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// Options configures a split.
type Options struct {
	// MaxTokens is the chunk size ceiling in tokens. Default: 512.
	MaxTokens int
	// OverlapTokens is how many trailing tokens of a chunk are repeated at
	// the start of the next one. Default: 0. Clamped below MaxTokens.
	OverlapTokens int
}

func (o *Options) defaults() {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 512
	}
	if o.OverlapTokens < 0 {
		o.OverlapTokens = 0
	}
	if o.OverlapTokens >= o.MaxTokens {
		o.OverlapTokens = o.MaxTokens / 4
	}
}

// Chunk is one piece of the split text.
type Chunk struct {
	Text        string `json:"text"`
	Index       int    `json:"index"`
	TokenCount  int    `json:"token_count"`
	OverlapPrev int    `json:"overlap_prev"` // tokens shared with the previous chunk
}

// CountTokens returns the number of whitespace-delimited tokens.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// EstimateTokens approximates a subword-tokenizer count from rune length
// (~4 runes per token), without splitting the text.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text) / 4
	if n == 0 && strings.TrimSpace(text) != "" {
		n = 1
	}
	return n
}

// Split cuts text into chunks of at most MaxTokens tokens. Text that fits
// in a single chunk is returned verbatim. Longer text is cut preferably at
// paragraph boundaries, falling back to hard word-window cuts inside
// oversized paragraphs, with OverlapTokens of carry-over between chunks.
func Split(text string, opts Options) []Chunk {
	opts.defaults()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if CountTokens(text) <= opts.MaxTokens {
		return []Chunk{{Text: text, TokenCount: CountTokens(text)}}
	}

	var chunks []Chunk
	var cur []string
	overlap := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Text:        strings.Join(cur, " "),
			Index:       len(chunks),
			TokenCount:  len(cur),
			OverlapPrev: overlap,
		})
		if opts.OverlapTokens > 0 {
			tail := cur[len(cur)-min(opts.OverlapTokens, len(cur)):]
			seed := make([]string, len(tail))
			copy(seed, tail)
			cur = seed
			overlap = len(seed)
		} else {
			cur = nil
			overlap = 0
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		for _, word := range strings.Fields(para) {
			if len(cur) >= opts.MaxTokens {
				flush()
			}
			cur = append(cur, word)
		}
		// Prefer ending a chunk at a paragraph boundary once it is
		// three-quarters full.
		if len(cur) >= opts.MaxTokens*3/4 {
			flush()
		}
	}

	// Emit the tail unless it is nothing but the overlap seed.
	if len(cur) > overlap {
		chunks = append(chunks, Chunk{
			Text:        strings.Join(cur, " "),
			Index:       len(chunks),
			TokenCount:  len(cur),
			OverlapPrev: overlap,
		})
	}
	return chunks
}
