package spreadsheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
)

const projectsSheet = "Projects"

var exportHeaders = []string{
	"Title",
	"Description",
	"Requirements",
	"Manager",
	"Deadline",
	"Priority",
	"Intern_Cap",
}

// WriteXLSX renders projects as a single-sheet workbook that Parse reads back unchanged.
func WriteXLSX(projects []entity.Project) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), projectsSheet); err != nil {
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(projectsSheet, cell, h)
	}

	for i, p := range projects {
		row := []any{p.Title, p.Description, p.Requirements, p.Manager, p.Deadline, p.Priority, p.InternCap}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(projectsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(projectsSheet, "A", "A", 28)
	_ = f.SetColWidth(projectsSheet, "B", "C", 40)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
