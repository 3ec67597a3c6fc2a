package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/extract"
	"github.com/joseph-ayodele/resume-ingestor/internal/llm"
	"github.com/joseph-ayodele/resume-ingestor/internal/llm/openai"
	"github.com/joseph-ayodele/resume-ingestor/internal/logger"
)

var (
	structure bool
	model     string
	logLevel  string
	maxPages  int
)

var rootCmd = &cobra.Command{
	Use:          "runextract <file.pdf>",
	Short:        "Extract text from a local PDF",
	Long:         `Runs the resume text extractor on a local PDF and prints the text. With --structure the text is also sent to the structuring model and the JSON document is printed instead.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().BoolVar(&structure, "structure", false, "also structure the text (needs OPENAI_API_KEY)")
	rootCmd.Flags().StringVar(&model, "model", "gpt-4o-mini", "model used with --structure")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	rootCmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 reads all)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logger.New(os.Stderr, logLevel, "text")
	path := args[0]
	if err := common.NewValidator().
		Field("file", path, common.Required, common.Extension(map[string]struct{}{"pdf": {}})).
		Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	res, err := extract.NewPDFExtractor(log, extract.WithMaxPages(maxPages)).Extract(data)
	if err != nil {
		return err
	}
	log.Info("text extraction OK",
		"pages", res.Pages, "chars", len(res.Text), "warnings", res.Warnings,
		"duration_ms", res.Duration.Milliseconds())

	out := cmd.OutOrStdout()
	if !structure {
		_, _ = fmt.Fprintln(out, res.Text)
		return nil
	}

	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("OPENAI_API_KEY env var is required")
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	client := openai.NewClient(openai.Config{Model: model}, log)
	doc, err := client.Structure(ctx, llm.StructureRequest{
		SystemPrompt: llm.ResumeSystemPrompt,
		DocumentText: res.Text,
		Format: llm.SchemaFormat{
			Name:   llm.ResumeSchemaName,
			Schema: llm.BuildResumeJSONSchema(),
		},
	})
	if err != nil {
		return err
	}
	if len(doc.SchemaErrors) > 0 {
		log.Warn("schema mismatches", "errors", doc.SchemaErrors)
	}

	var pretty any
	if err := json.Unmarshal(doc.Content, &pretty); err != nil {
		_, _ = fmt.Fprintln(out, string(doc.Content))
		return nil
	}
	b, _ := json.MarshalIndent(pretty, "", "  ")
	_, _ = fmt.Fprintln(out, string(b))
	return nil
}
