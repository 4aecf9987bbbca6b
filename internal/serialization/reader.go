package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sparsefem/sparsefem/internal/arith"
	"github.com/sparsefem/sparsefem/internal/tensor"
)

// ReaderOptions configures Read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// File is the decoded contents of a .sfem file.
type File struct {
	Header  Header
	Flags   uint32
	Tensors map[string]*tensor.Tensor[float64]
}

// Tensor returns the named tensor, or the only tensor when name is empty.
func (f *File) Tensor(name string) (*tensor.Tensor[float64], error) {
	if name == "" && len(f.Tensors) == 1 {
		for _, t := range f.Tensors {
			return t, nil
		}
	}
	t, ok := f.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTensorNotFound, name)
	}
	return t, nil
}

// Read decodes a .sfem stream.
func Read(r io.Reader, opts ReaderOptions) (*File, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(fixed[4:8]); v != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, v, FormatVersion)
	}
	flags := binary.LittleEndian.Uint32(fixed[8:12])
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	var stored [32]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	padding := alignedDataOffset(int64(headerSize)) - FixedHeaderSize - int64(headerSize)
	if _, err := io.CopyN(io.Discard, r, padding); err != nil {
		return nil, fmt.Errorf("failed to skip padding: %w", err)
	}

	data, err := io.ReadAll(io.LimitReader(r, int64(min(dataSize, math.MaxInt64))))
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if uint64(len(data)) != dataSize {
		return nil, fmt.Errorf("truncated data section: got %d bytes, expected %d", len(data), dataSize)
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
			return nil, err
		}
	}
	if err := ValidateHeader(&header, int64(len(data)), opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	f := &File{
		Header:  header,
		Flags:   flags,
		Tensors: make(map[string]*tensor.Tensor[float64], len(header.Tensors)),
	}
	for _, meta := range header.Tensors {
		t, err := decodeTensor(meta, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode tensor %s: %w", meta.Name, err)
		}
		f.Tensors[meta.Name] = t
	}
	return f, nil
}

// Load reads a .sfem file.
func Load(path string, opts ReaderOptions) (*File, error) {
	//nolint:gosec // G304: File path comes from user input
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Read(file, opts)
}

func decodeTensor(meta TensorMeta, data []byte) (*tensor.Tensor[float64], error) {
	rank := len(meta.Shape)
	if err := checkRegion(meta, int64(len(data))); err != nil {
		return nil, err
	}

	t, err := tensor.New(tensor.Shape(meta.Shape), arith.Float64, tensor.DefaultCapacity)
	if err != nil {
		return nil, err
	}

	region := data[meta.Offset : meta.Offset+meta.Size]
	path := make([]int, rank)
	for len(region) > 0 {
		for i := range path {
			path[i] = int(binary.LittleEndian.Uint32(region[:4]))
			region = region[4:]
			if path[i] >= meta.Shape[i] {
				return nil, &ValidationError{
					Type:    "index_out_of_range",
					Tensor:  meta.Name,
					Details: fmt.Sprintf("index %d at rank %d, dimension %d", path[i], i, meta.Shape[i]),
				}
			}
		}
		t.Set(math.Float64frombits(binary.LittleEndian.Uint64(region[:8])), path...)
		region = region[8:]
	}
	return t, nil
}
