// Package extract turns PDF bytes into plain text.
package extract

import (
	"time"
)

// TextExtractor is the first stage of a resume job: bytes -> text.
// Implementations do no I/O and never retry.
type TextExtractor interface {
	Extract(data []byte) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Pages    int
	Method   string // "pdf-text"
	Duration time.Duration
	Warnings []string
}
