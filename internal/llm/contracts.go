package llm

import (
	"context"
	"encoding/json"
)

// ResponseFormat is the tagged variant carried by a structuring request.
// It is implemented only by SchemaFormat and TextFormat.
type ResponseFormat interface {
	isResponseFormat()
}

// SchemaFormat asks the service for JSON constrained by Schema.
type SchemaFormat struct {
	Name   string
	Schema map[string]any
	Strict bool
}

// TextFormat asks for free text.
type TextFormat struct{}

func (SchemaFormat) isResponseFormat() {}
func (TextFormat) isResponseFormat()   {}

type StructureRequest struct {
	SystemPrompt string
	DocumentText string
	Format       ResponseFormat
}

// Document is the first candidate returned by the structuring service.
type Document struct {
	Content json.RawMessage // valid JSON for SchemaFormat, a JSON string for TextFormat
	Model   string
	// SchemaErrors holds loose validation findings that did not fail the call.
	SchemaErrors []string
}

// Structurer converts free text into a schema-conformant JSON document in one round trip.
type Structurer interface {
	Structure(ctx context.Context, req StructureRequest) (Document, error)
}
