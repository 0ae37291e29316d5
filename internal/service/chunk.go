package service

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/parley/parley-go/internal/model"
)

// chunkWords splits text into groups of n words. Each chunk keeps the
// whitespace that follows its words and the first chunk keeps any leading
// whitespace, so joining the chunks gives back text exactly.
func chunkWords(text string, n int) []string {
	if text == "" {
		return nil
	}
	if n < 1 {
		n = 1
	}

	var chunks []string
	start, words := 0, 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		if words == n {
			chunks = append(chunks, text[start:i])
			start, words = i, 0
		}
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if unicode.IsSpace(r) {
				break
			}
			i += size
		}
		words++
	}

	return append(chunks, text[start:])
}

// buildPrompt renders the transcript as "role: content" lines.
func buildPrompt(msgs []model.Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.Role + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
