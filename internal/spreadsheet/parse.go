// Package spreadsheet reads project lists out of CSV and Excel uploads.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor Excel.
var ErrUnsupportedFormat = errors.New("unsupported file format")

type column int

const (
	colUnknown column = iota
	colTitle
	colDescription
	colRequirements
	colManager
	colDeadline
	colPriority
	colInternCap
)

// headerAliases maps lowercased header cells to project columns.
var headerAliases = map[string]column{
	"title":        colTitle,
	"project name": colTitle,
	"description":  colDescription,
	"about":        colDescription,
	"requirements": colRequirements,
	"skills":       colRequirements,
	"manager":      colManager,
	"lead":         colManager,
	"deadline":     colDeadline,
	"due date":     colDeadline,
	"priority":     colPriority,
	"intern_cap":   colInternCap,
	"capacity":     colInternCap,
	"interns":      colInternCap,
}

const (
	defaultPriority  int16 = 0
	defaultInternCap int16 = 1
)

// Parse picks a reader from the file extension and returns every row that has a title.
func Parse(filename string, data []byte) ([]entity.Project, error) {
	switch constants.FileExt(filename) {
	case "csv":
		return ParseCSV(data)
	case "xlsx", "xls":
		return ParseExcel(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

// ParseCSV reads a CSV with a header row.
func ParseCSV(data []byte) ([]entity.Project, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return fromRows(rows), nil
}

// ParseExcel reads the first sheet of a workbook; the first row is the header.
func ParseExcel(data []byte) ([]entity.Project, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found in workbook")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows), nil
}

func fromRows(rows [][]string) []entity.Project {
	if len(rows) == 0 {
		return nil
	}
	header := make([]column, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = headerAliases[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))]
	}

	var out []entity.Project
	for _, row := range rows[1:] {
		p := entity.Project{Priority: defaultPriority, InternCap: defaultInternCap}
		for j, cell := range row {
			if j >= len(header) {
				break
			}
			cell = strings.TrimSpace(cell)
			switch header[j] {
			case colTitle:
				p.Title = cell
			case colDescription:
				p.Description = cell
			case colRequirements:
				p.Requirements = cell
			case colManager:
				p.Manager = cell
			case colDeadline:
				p.Deadline = cell
			case colPriority:
				p.Priority = parseSmallInt(cell, defaultPriority)
			case colInternCap:
				p.InternCap = parseSmallInt(cell, defaultInternCap)
			}
		}
		if p.Title == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// parseSmallInt accepts "3" and "3.0"; anything else yields def.
func parseSmallInt(s string, def int16) int16 {
	if s == "" {
		return def
	}
	if n, err := strconv.ParseInt(s, 10, 16); err == nil {
		return int16(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= -32768 && f <= 32767 {
		return int16(f)
	}
	return def
}
