package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/llm"
)

var _ llm.Structurer = (*Client)(nil)

// Structure implements llm.Structurer with a single chat completion.
func (c *Client) Structure(ctx context.Context, req llm.StructureRequest) (llm.Document, error) {
	rid := uuid.New().String()
	start := time.Now()
	user := llm.BuildUserPrompt(req.DocumentText, c.cfg.MaxChars)

	params := openai.ChatCompletionNewParams{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(c.cfg.Temperature),
	}

	var schema llm.SchemaFormat
	switch f := req.Format.(type) {
	case llm.SchemaFormat:
		schema = f
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   f.Name,
					Schema: f.Schema,
					Strict: openai.Bool(f.Strict),
				},
			},
		}
	case llm.TextFormat, nil:
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfText: &shared.ResponseFormatTextParam{},
		}
	default:
		return llm.Document{}, common.NewStructuringError(common.StructuringKindRequest,
			fmt.Sprintf("unsupported response format %T", f), common.ErrInvalidInput)
	}

	c.logger.InfoContext(ctx, "llm.structure.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(user),
		"schema", schema.Name,
	)

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		c.logger.ErrorContext(ctx, "llm.structure.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Document{}, common.NewStructuringError(common.StructuringKindRequest, "structuring request failed", err)
	}

	if len(resp.Choices) == 0 {
		c.logger.ErrorContext(ctx, "llm.structure.no_choices",
			"req_id", rid, "elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Document{}, common.NewStructuringError(common.StructuringKindNoCandidates, "no candidates in structuring response", nil)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	if _, isSchema := req.Format.(llm.SchemaFormat); !isSchema {
		b, _ := json.Marshal(content)
		return llm.Document{Content: b, Model: resp.Model}, nil
	}

	if !json.Valid([]byte(content)) {
		c.logger.ErrorContext(ctx, "llm.structure.invalid_json",
			"req_id", rid, "content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Document{}, common.NewStructuringError(common.StructuringKindInvalidJSON, "structuring response is not valid JSON", nil)
	}

	doc := llm.Document{Content: json.RawMessage(content), Model: resp.Model}
	if vErr := c.validate(schema, []byte(content)); vErr != nil {
		if c.cfg.StrictSchema {
			c.logger.ErrorContext(ctx, "llm.structure.schema_validation_failed",
				"req_id", rid, "error", vErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.Document{}, common.NewStructuringError(common.StructuringKindSchemaMismatch, "structuring response does not match schema", vErr)
		}
		c.logger.WarnContext(ctx, "llm.structure.schema_mismatch",
			"req_id", rid, "error", vErr)
		doc.SchemaErrors = []string{vErr.Error()}
	}

	c.logger.InfoContext(ctx, "llm.structure.ok",
		"req_id", rid,
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// validate checks the document loosely: null and empty optionals are dropped first.
func (c *Client) validate(format llm.SchemaFormat, content []byte) error {
	if format.Schema == nil {
		return nil
	}
	schema, err := c.compiledSchema(format)
	if err != nil {
		return err
	}
	cleaned, dropped, err := llm.DropNullFields(content)
	if err != nil {
		// Arrays or scalars at the top level, validate as is.
		cleaned = content
	} else if len(dropped) > 0 {
		c.logger.Debug("llm.structure.dropped_empty_fields", "fields", dropped)
	}
	return llm.ValidateJSON(schema, cleaned)
}

// compiledSchema compiles each schema once, keyed by its format name.
func (c *Client) compiledSchema(format llm.SchemaFormat) (*jsonschema.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.schemas[format.Name]; ok {
		return s, nil
	}
	s, err := llm.CompileSchema(format.Schema)
	if err != nil {
		return nil, err
	}
	c.schemas[format.Name] = s
	return s, nil
}
