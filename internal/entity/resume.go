package entity

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Resume is the record produced by a single document job, keyed by the job id.
type Resume struct {
	ID           uuid.UUID       `json:"id"`
	Filename     string          `json:"filename"`
	Status       string          `json:"status"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	Text         *string         `json:"text,omitempty"`
	Structured   json.RawMessage `json:"structured,omitempty"`
	ZipID        *uuid.UUID      `json:"zip_id,omitempty"`
}
