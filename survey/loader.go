// Package survey loads and cleans the labour-market survey exports.
package survey

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/surveyboost/pkg/errors"
	"github.com/YuminosukeSato/surveyboost/pkg/log"
)

// LoadOptions controls how a delimited file is parsed.
type LoadOptions struct {
	// Comma is the field separator. Zero means ';'.
	Comma rune
	// Decimal is the decimal separator for numeric columns. Zero means ','.
	Decimal rune
	Schema  Schema
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Comma == 0 {
		o.Comma = ';'
	}
	if o.Decimal == 0 {
		o.Decimal = ','
	}
	return o
}

// Table is a column-oriented view of a loaded file. Header order is kept.
type Table struct {
	Source  string
	Header  []string
	Schema  Schema
	text    map[string][]string
	numeric map[string][]float64
	lines   []int
	rows    int
}

// Rows returns the number of data rows.
func (t *Table) Rows() int { return t.rows }

// Has reports whether the header contains name.
func (t *Table) Has(name string) bool {
	_, okText := t.text[name]
	_, okNum := t.numeric[name]
	return okText || okNum
}

// Text returns a text column, or nil if absent or numeric.
func (t *Table) Text(name string) []string { return t.text[name] }

// Numeric returns a numeric column, or nil if absent or text.
func (t *Table) Numeric(name string) []float64 { return t.numeric[name] }

// Line returns the 1-based source line of data row i.
func (t *Table) Line(i int) int { return t.lines[i] }

// Load reads the file at path.
func Load(path string, opts LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}
	defer f.Close()

	t, err := Read(f, path, opts)
	if err != nil {
		return nil, err
	}
	log.GetLoggerWithName("survey.loader").Info("Loaded survey export",
		log.OperationKey, log.OperationLoad,
		log.PathKey, path,
		log.RowsKey, t.Rows(),
	)
	return t, nil
}

// Read parses a delimited stream. source names the stream in errors.
func Read(r io.Reader, source string, opts LoadOptions) (*Table, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.Comma = opts.Comma
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewParseError(source, 1, "", "missing header row")
	}
	if err != nil {
		return nil, csvError(source, err)
	}
	header = append([]string(nil), header...)
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; dup {
			return nil, errors.NewParseError(source, 1, name, "duplicate column")
		}
		index[name] = i
	}
	for _, spec := range opts.Schema.Columns {
		if _, ok := index[spec.Name]; !ok {
			return nil, errors.NewParseError(source, 1, spec.Name, "required column missing from header")
		}
	}

	t := &Table{
		Source:  source,
		Header:  header,
		Schema:  opts.Schema,
		text:    make(map[string][]string),
		numeric: make(map[string][]float64),
	}
	for _, name := range header {
		if opts.Schema.Kind(name) == Numeric {
			t.numeric[name] = nil
		} else {
			t.text[name] = nil
		}
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(source, err)
		}
		line, _ := cr.FieldPos(0)
		if len(record) != len(header) {
			return nil, errors.NewParseError(source, line, "",
				"expected "+strconv.Itoa(len(header))+" fields, got "+strconv.Itoa(len(record)))
		}

		for i, name := range header {
			cell := record[i]
			if _, ok := t.numeric[name]; ok {
				v, err := ParseDecimal(cell, opts.Decimal)
				if err != nil {
					return nil, errors.NewParseError(source, line, name, "cannot parse \""+cell+"\" as a number")
				}
				t.numeric[name] = append(t.numeric[name], v)
				continue
			}
			t.text[name] = append(t.text[name], cell)
		}
		t.lines = append(t.lines, line)
		t.rows++
	}
	return t, nil
}

// ParseDecimal parses a number written with the given decimal separator.
// An empty cell parses as NaN.
func ParseDecimal(s string, decimal rune) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	if decimal != '.' {
		s = strings.ReplaceAll(s, string(decimal), ".")
	}
	return strconv.ParseFloat(s, 64)
}

func csvError(source string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return errors.NewParseError(source, pe.Line, "", pe.Err.Error())
	}
	return errors.NewIOError("read", source, err)
}
