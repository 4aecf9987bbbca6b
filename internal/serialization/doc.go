// Package serialization provides the native .sfem format for saving and
// loading sparse tensors.
//
// The .sfem format stores only the non-zero entries of each tensor, as a
// coordinate list:
//
//	Format Structure:
//	  [64 bytes: fixed header]
//	    0x00 Magic "SFEM"
//	    0x04 Version (uint32 LE)
//	    0x08 Flags (uint32 LE)
//	    0x0C Reserved
//	    0x10 Header size (uint64 LE)
//	    0x18 Data size (uint64 LE)
//	    0x20 SHA-256 of the data section
//	  [Header: JSON metadata]
//	  [Padding to 64 bytes]
//	  [Data: per tensor, entries in key order, each rank×uint32 index + float64]
//
// Example usage:
//
//	// Save an assembled stiffness matrix
//	err := serialization.Save("k.sfem", map[string]*tensor.Tensor[float64]{"K": k}, nil)
//
//	// Load it back
//	f, err := serialization.Load("k.sfem", serialization.ReaderOptions{})
//	k := f.Tensors["K"]
package serialization
