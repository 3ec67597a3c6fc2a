package openai

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config for the OpenAI client.
type Config struct {
	APIKey       string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL      string        // default https://api.openai.com/v1
	Model        string        // e.g., "gpt-4o-mini"
	Temperature  float64       // 0..2
	Timeout      time.Duration // per request
	StrictSchema bool          // fail on schema mismatch instead of logging it
	MaxChars     int           // cap on document text sent, 0 sends everything
	HTTPClient   *http.Client
}

type Client struct {
	cfg    Config
	api    openai.Client
	logger *slog.Logger

	mu      sync.Mutex
	schemas map[string]*jsonschema.Schema // compiled response schemas by name
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		// A failed structuring call fails the job; the trigger source re-runs it.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		cfg:     cfg,
		api:     openai.NewClient(opts...),
		logger:  logger,
		schemas: make(map[string]*jsonschema.Schema),
	}
}

func (c *Client) Model() string { return c.cfg.Model }
