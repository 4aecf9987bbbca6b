// Package loader reads coefficient tables for finite-element assembly.
//
// A table is a plain-text flat array:
//
//	# 2x2 element stiffness
//	2 2
//	 4 -1
//	-1  4
//
// Lines starting with '#' and blank lines are ignored. The first data line
// holds the dimensions; every remaining token is a value in row-major order.
// Tokens are separated by whitespace or commas. The value count must equal the
// product of the dimensions.
//
// Example:
//
//	tbl, err := loader.LoadFile("element.tbl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	local, err := tbl.Tensor()
//
// Tables hold dense values; Tensor drops zeros when building the sparse form.
// Connectivity tables (element to global dof maps) are read with Ints.
package loader
