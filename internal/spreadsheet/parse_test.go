package spreadsheet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
)

func TestParseCSV_Aliases(t *testing.T) {
	data := []byte("Project Name,About,Skills,Lead,Due Date,Priority,Interns\n" +
		"Search revamp,Rebuild the index,Go; SQL,Ada,2025-06-01,2,3\n" +
		",no title so skipped,,,,,\n" +
		"Billing,,,,,,\n")

	got, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, entity.Project{
		Title:        "Search revamp",
		Description:  "Rebuild the index",
		Requirements: "Go; SQL",
		Manager:      "Ada",
		Deadline:     "2025-06-01",
		Priority:     2,
		InternCap:    3,
	}, got[0])
	assert.Equal(t, "Billing", got[1].Title)
	assert.Equal(t, int16(0), got[1].Priority)
	assert.Equal(t, int16(1), got[1].InternCap)
}

func TestParseCSV_ByteOrderMark(t *testing.T) {
	data := []byte("\uFEFFTitle,Interns\nSearch revamp,2\n")

	got, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Search revamp", got[0].Title)
	assert.Equal(t, int16(2), got[0].InternCap)
}

func TestParseCSV_Malformed(t *testing.T) {
	_, err := ParseCSV([]byte("title,description\n\"unterminated,x\n"))
	assert.Error(t, err)
}

func TestParseExcel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Title", "Description", "Requirements", "Manager", "Deadline", "Priority", "Capacity"},
		{"Data pipeline", "ETL", "Python", "Grace", "2025-09-30", 1, 4},
		{"", "skipped", "", "", "", "", ""},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	got, err := Parse("projects.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Data pipeline", got[0].Title)
	assert.Equal(t, "Grace", got[0].Manager)
	assert.Equal(t, int16(1), got[0].Priority)
	assert.Equal(t, int16(4), got[0].InternCap)
}

func TestParse_Dispatch(t *testing.T) {
	_, err := Parse("projects.pdf", []byte("x"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Parse("projects.xlsx", []byte("not a workbook"))
	assert.Error(t, err)

	got, err := Parse("PROJECTS.CSV", []byte("title\nOnly\n"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestParseSmallInt(t *testing.T) {
	assert.Equal(t, int16(3), parseSmallInt("3", 0))
	assert.Equal(t, int16(3), parseSmallInt("3.0", 0))
	assert.Equal(t, int16(1), parseSmallInt("lots", 1))
	assert.Equal(t, int16(0), parseSmallInt("", 0))
}

func TestWriteXLSX_ReadsBack(t *testing.T) {
	in := []entity.Project{
		{Title: "Search", Description: "Index rebuild", Requirements: "Go", Manager: "Ada", Deadline: "2025-06-01", Priority: 2, InternCap: 3},
		{Title: "Billing", Priority: 0, InternCap: 1},
	}
	data, err := WriteXLSX(in)
	require.NoError(t, err)

	out, err := Parse("export.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
