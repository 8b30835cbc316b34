// Package reply splits completion text into sentence-like chunks and paces
// their delivery to simulate human typing cadence.
package reply

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// Split breaks text into chunks at boundaries immediately following '.',
// '!', or '?' when followed by whitespace. This is a sentence-terminal
// heuristic, not a parser: abbreviations and decimals will over-split,
// which is accepted behavior. Chunks are whitespace-trimmed and empty
// chunks are dropped.
func Split(text string) []string {
	var chunks []string
	start := 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 >= len(text) || !isSpace(text[i+1]) {
			continue
		}
		appendChunk(&chunks, text[start:i+1])
		start = i + 1
	}
	appendChunk(&chunks, text[start:])

	return chunks
}

func appendChunk(chunks *[]string, chunk string) {
	chunk = strings.TrimSpace(chunk)
	if chunk != "" {
		*chunks = append(*chunks, chunk)
	}
}

func isSpace(c byte) bool {
	return c < 0x80 && unicode.IsSpace(rune(c))
}

// Pacer sends reply chunks with a fixed delay between consecutive sends.
// The delay suspends only the calling goroutine, so pacing one conversation
// never stalls handlers for other conversations.
type Pacer struct {
	Delay time.Duration
}

// Send delivers each chunk through send, pausing Delay between chunks.
// It stops early when the context is cancelled or a send fails.
func (p Pacer) Send(ctx context.Context, chunks []string, send func(context.Context, string) error) error {
	for i, chunk := range chunks {
		if i > 0 {
			if err := sleep(ctx, p.Delay); err != nil {
				return err
			}
		}
		if err := send(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
