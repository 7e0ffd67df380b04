package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ColumnType is the inferred storage type of a CSV column.
type ColumnType string

const (
	TypeInteger ColumnType = "integer"
	TypeReal    ColumnType = "real"
	TypeText    ColumnType = "text"
)

type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Dataset is the process-lifetime tabular structure backing data answers.
// It is loaded once at startup and never mutated afterwards; execution
// always happens against a Copy.
type Dataset struct {
	columns []Column
	rows    [][]string
}

// Description is the read-only structural metadata used for prompt
// construction.
type Description struct {
	RowCount    int        `json:"row_count"`
	ColumnCount int        `json:"column_count"`
	Columns     []Column   `json:"columns"`
	SampleRows  [][]string `json:"sample_rows"`
}

const sampleRowLimit = 10

// Load reads a CSV file into a Dataset. The first record is the header;
// column types are inferred from the remaining records.
func Load(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, validated below

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", path)
	}

	return FromRecords(records[0], records[1:])
}

// FromRecords builds a Dataset from an in-memory header and rows. Rows
// shorter than the header are padded with empty cells; longer rows are an
// error.
func FromRecords(header []string, rows [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("dataset has no columns")
	}

	normalized := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(header))
		}
		r := make([]string, len(header))
		copy(r, row)
		normalized[i] = r
	}

	columns := make([]Column, len(header))
	for i, name := range header {
		columns[i] = Column{
			Name: strings.TrimSpace(name),
			Type: inferColumnType(normalized, i),
		}
	}

	return &Dataset{columns: columns, rows: normalized}, nil
}

// inferColumnType scans a column and picks the narrowest type that fits
// every non-empty value: integer, then real, then text.
func inferColumnType(rows [][]string, col int) ColumnType {
	sawValue := false
	isInteger := true
	isReal := true

	for _, row := range rows {
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		sawValue = true
		if isInteger {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInteger = false
			}
		}
		if !isInteger && isReal {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isReal = false
				break
			}
		}
	}

	switch {
	case !sawValue:
		return TypeText
	case isInteger:
		return TypeInteger
	case isReal:
		return TypeReal
	default:
		return TypeText
	}
}

func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

func (d *Dataset) RowCount() int {
	return len(d.rows)
}

// Copy returns an isolated deep copy of the rows. Callers may transform the
// copy freely; the canonical data is unaffected.
func (d *Dataset) Copy() [][]string {
	out := make([][]string, len(d.rows))
	for i, row := range d.rows {
		r := make([]string, len(row))
		copy(r, row)
		out[i] = r
	}
	return out
}

func (d *Dataset) Describe() Description {
	sample := d.rows
	if len(sample) > sampleRowLimit {
		sample = sample[:sampleRowLimit]
	}
	sampleCopy := make([][]string, len(sample))
	for i, row := range sample {
		r := make([]string, len(row))
		copy(r, row)
		sampleCopy[i] = r
	}

	return Description{
		RowCount:    len(d.rows),
		ColumnCount: len(d.columns),
		Columns:     d.Columns(),
		SampleRows:  sampleCopy,
	}
}

// Render produces the metadata block embedded in translation prompts:
// shape, schema and the sample rows as a tab-separated table.
func (desc Description) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Rows: %d\n", desc.RowCount)
	fmt.Fprintf(&sb, "Columns: %d\n", desc.ColumnCount)

	sb.WriteString("Schema:\n")
	for _, col := range desc.Columns {
		fmt.Fprintf(&sb, "  - %s (%s)\n", col.Name, col.Type)
	}

	sb.WriteString("Sample data:\n")
	names := make([]string, len(desc.Columns))
	for i, col := range desc.Columns {
		names[i] = col.Name
	}
	sb.WriteString(strings.Join(names, "\t"))
	for _, row := range desc.SampleRows {
		sb.WriteString("\n")
		sb.WriteString(strings.Join(row, "\t"))
	}

	return sb.String()
}
