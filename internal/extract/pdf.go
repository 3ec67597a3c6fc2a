package extract

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/resume-ingestor/internal/common"
)

const MethodPDFText = "pdf-text"

var disableConfigDir sync.Once

// PDFExtractor reads the text layer of a PDF held in memory using pdfcpu.
type PDFExtractor struct {
	maxPages int
	logger   *slog.Logger
}

type Option func(*PDFExtractor)

// WithMaxPages stops extraction after n pages. Zero means all pages.
func WithMaxPages(n int) Option {
	return func(e *PDFExtractor) {
		if n > 0 {
			e.maxPages = n
		}
	}
}

func NewPDFExtractor(logger *slog.Logger, opts ...Option) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	// pdfcpu otherwise creates a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)

	e := &PDFExtractor{logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract returns the text of every page. Any failure to parse the document is
// reported as an extraction error.
func (e *PDFExtractor) Extract(data []byte) (res TextExtractionResult, err error) {
	start := time.Now()
	defer func() {
		// pdfcpu can panic on badly broken cross reference tables.
		if r := recover(); r != nil {
			res = TextExtractionResult{}
			err = common.NewExtractionError(fmt.Errorf("pdf parser panic: %v", r))
		}
	}()

	if len(data) == 0 {
		return TextExtractionResult{}, common.NewExtractionError(fmt.Errorf("empty document"))
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return TextExtractionResult{}, common.NewExtractionError(fmt.Errorf("read pdf: %w", err))
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return TextExtractionResult{}, common.NewExtractionError(fmt.Errorf("count pages: %w", err))
	}

	pages := pdfCtx.PageCount
	if e.maxPages > 0 && pages > e.maxPages {
		pages = e.maxPages
	}

	var (
		b        strings.Builder
		warnings []string
	)
	for pageNr := 1; pageNr <= pages; pageNr++ {
		pageDict, _, attrs, err := pdfCtx.PageDict(pageNr, false)
		if err != nil {
			return TextExtractionResult{}, common.NewExtractionError(fmt.Errorf("page %d: %w", pageNr, err))
		}
		raw, err := pdfCtx.PageContent(pageDict, pageNr)
		if errors.Is(err, model.ErrNoContent) || (err == nil && len(raw) == 0) {
			warnings = append(warnings, fmt.Sprintf("page %d has no content", pageNr))
			continue
		}
		if err != nil {
			return TextExtractionResult{}, common.NewExtractionError(fmt.Errorf("page %d: %w", pageNr, err))
		}

		var fonts map[string]*textFont
		if attrs != nil {
			fonts = pageFonts(pdfCtx, attrs.Resources)
		}
		pageText, missing := contentText(raw, fonts)
		if missing > 0 {
			warnings = append(warnings, fmt.Sprintf("page %d: %d character codes without a unicode mapping", pageNr, missing))
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pageText)
	}

	text := Normalize(b.String())
	if text == "" {
		warnings = append(warnings, "no text layer found")
	}

	res = TextExtractionResult{
		Text:     text,
		Pages:    pages,
		Method:   MethodPDFText,
		Duration: time.Since(start),
		Warnings: warnings,
	}
	e.logger.Debug("extract.pdf.ok",
		"pages", res.Pages, "text_len", len(res.Text),
		"warnings", len(warnings), "elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}
