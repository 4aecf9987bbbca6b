// Package loader reads coefficient tables for finite-element assembly.
//
// This package wraps the internal loader implementation and exports a clean
// public API for reading flat-array tables into sparse tensors.
//
// Example usage:
//
//	import (
//	    "github.com/sparsefem/sparsefem/loader"
//	    "github.com/sparsefem/sparsefem/tensor"
//	)
//
//	tbl, err := loader.LoadFile("element.tbl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	local, err := tbl.Tensor() // *tensor.Tensor[float64]
package loader

import (
	"io"

	"github.com/sparsefem/sparsefem/internal/loader"
	"github.com/sparsefem/sparsefem/tensor"
)

// Table is a dense flat array with its dimensions.
type Table = loader.Table

// Errors returned while reading tables.
var (
	ErrMalformedTable = loader.ErrMalformedTable
	ErrValueCount     = loader.ErrValueCount
)

// Load parses a table from r.
//
// Lines starting with '#' and blank lines are ignored. The first data line
// holds the dimensions, and the remaining whitespace- or comma-separated
// tokens are the values in row-major order.
func Load(r io.Reader) (*Table, error) {
	return loader.Load(r)
}

// LoadFile opens path and parses it as a table.
func LoadFile(path string) (*Table, error) {
	return loader.LoadFile(path)
}

// Write encodes t as a dense table that Load reads back.
func Write(w io.Writer, t *tensor.Tensor[float64]) error {
	return loader.Write(w, t)
}
