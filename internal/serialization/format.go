package serialization

import "time"

// Format constants.
const (
	MagicBytes      = "SFEM"
	FormatVersion   = 1
	HeaderAlignment = 64 // Data section starts on a 64-byte boundary
	FixedHeaderSize = 64
	ChecksumSize    = 32
	ChecksumOffset  = 0x20
)

// Flags for the .sfem format.
const (
	FlagHasMetadata uint32 = 1 << 0 // bit 0: custom metadata included
)

// Header represents the JSON header in a .sfem file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	Version       string            `json:"sparsefem_version"`
	ID            string            `json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata"`
}

// TensorMeta describes a tensor in the .sfem file.
type TensorMeta struct {
	Name    string `json:"name"`    // Tensor name (e.g., "K", "f")
	Shape   []int  `json:"shape"`   // Tensor shape
	Entries int64  `json:"entries"` // Number of stored entries
	Offset  int64  `json:"offset"`  // Offset in the data section
	Size    int64  `json:"size"`    // Size in bytes
}

// entrySize is the encoded size of one entry of a tensor of the given rank.
func entrySize(rank int) int64 {
	return int64(4*rank + 8)
}

func alignedDataOffset(headerSize int64) int64 {
	pos := FixedHeaderSize + headerSize
	return pos + (HeaderAlignment-(pos%HeaderAlignment))%HeaderAlignment
}
