package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sparsefem/sparsefem/internal/arith"
	"github.com/sparsefem/sparsefem/internal/tensor"
)

// Errors returned while reading tables.
var (
	ErrMalformedTable = errors.New("loader: malformed table")
	ErrValueCount     = errors.New("loader: value count does not match dimensions")
)

// maxLine bounds a single table line. Rows of large assembled matrices can be long.
const maxLine = 16 * 1024 * 1024

const maxPrealloc = 1 << 16

// Table is a dense flat array with its dimensions.
type Table struct {
	Shape  tensor.Shape
	Values []float64
}

// Load parses a table from r.
func Load(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var tbl *Table
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if tbl == nil {
			shape, err := parseShape(text)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedTable, line, err)
			}
			tbl = &Table{Shape: shape, Values: make([]float64, 0, min(shape.NumElements(), maxPrealloc))}
			continue
		}

		for _, tok := range fields(text) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedTable, line, err)
			}
			tbl.Values = append(tbl.Values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}

	if tbl == nil {
		return nil, fmt.Errorf("%w: no dimensions line", ErrMalformedTable)
	}
	if want := tbl.Shape.NumElements(); len(tbl.Values) != want {
		return nil, fmt.Errorf("%w: got %d values, shape %v needs %d",
			ErrValueCount, len(tbl.Values), tbl.Shape, want)
	}
	return tbl, nil
}

// LoadFile opens path and parses it as a table.
func LoadFile(path string) (*Table, error) {
	//nolint:gosec // G304: table paths come from the command line
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer func() { _ = f.Close() }()

	tbl, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tbl, nil
}

// Tensor builds the sparse form of the table, dropping zero values.
func (tb *Table) Tensor() (*tensor.Tensor[float64], error) {
	return tensor.FromFlatValues(tb.Values, tb.Shape, arith.Float64)
}

// Ints returns the values as integers. Every value must be integral.
func (tb *Table) Ints() ([]int, error) {
	out := make([]int, len(tb.Values))
	for i, v := range tb.Values {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %d (%g) is not an integer", ErrMalformedTable, i, v)
		}
		if v >= math.MaxInt || v < math.MinInt {
			return nil, fmt.Errorf("%w: value %d (%g) is out of int range", ErrMalformedTable, i, v)
		}
		out[i] = int(v)
	}
	return out, nil
}

// Rows splits the values along the first dimension. A rank 1 table yields one row.
func (tb *Table) Rows() [][]float64 {
	if len(tb.Shape) < 2 {
		return [][]float64{tb.Values}
	}
	n := tb.Shape[0]
	width := len(tb.Values) / n
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = tb.Values[i*width : (i+1)*width]
	}
	return rows
}

// Write encodes t as a dense table. Missing entries are written as zeros.
func Write(w io.Writer, t *tensor.Tensor[float64]) error {
	bw := bufio.NewWriter(w)
	shape := t.Shape()

	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}
	if _, err := fmt.Fprintln(bw, strings.Join(dims, " ")); err != nil {
		return err
	}

	values := t.FlatValues()
	width := shape[len(shape)-1]
	for i, v := range values {
		sep := byte(' ')
		if (i+1)%width == 0 {
			sep = '\n'
		}
		if _, err := bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return err
		}
		if err := bw.WriteByte(sep); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func parseShape(text string) (tensor.Shape, error) {
	toks := fields(text)
	shape := make(tensor.Shape, len(toks))
	for i, tok := range toks {
		d, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("dimension %q: %w", tok, err)
		}
		shape[i] = d
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return shape, nil
}

func fields(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
