package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/sparsefem/sparsefem/internal/tensor"
)

// Version is written into every header.
const Version = "0.1.0"

// Write encodes tensors in .sfem format. Tensors are laid out in name order,
// so equal inputs produce equal data sections.
func Write(w io.Writer, tensors map[string]*tensor.Tensor[float64], metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		if tensors[name] == nil {
			return fmt.Errorf("tensor %q is nil", name)
		}
		names = append(names, name)
	}
	slices.Sort(names)

	header := Header{
		FormatVersion: FormatVersion,
		Version:       Version,
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(names)),
		Metadata:      metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	var data bytes.Buffer
	for _, name := range names {
		t := tensors[name]
		offset := int64(data.Len())
		entries, err := encodeEntries(&data, t)
		if err != nil {
			return fmt.Errorf("failed to encode tensor %s: %w", name, err)
		}
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:    name,
			Shape:   []int(t.Shape()),
			Entries: entries,
			Offset:  offset,
			Size:    int64(data.Len()) - offset,
		})
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	flags := uint32(0)
	if len(metadata) > 0 {
		flags |= FlagHasMetadata
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(data.Len()))
	checksum := ComputeChecksum(data.Bytes())
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	headerSize := int64(len(headerJSON))
	if padding := alignedDataOffset(headerSize) - FixedHeaderSize - headerSize; padding > 0 {
		if _, err := w.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := w.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// Save writes tensors to path in .sfem format.
func Save(path string, tensors map[string]*tensor.Tensor[float64], metadata map[string]string) error {
	//nolint:gosec // G304: output path comes from the user
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(file, tensors, metadata); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func encodeEntries(buf *bytes.Buffer, t *tensor.Tensor[float64]) (int64, error) {
	var entries int64
	var scratch [8]byte
	for path, v := range t.All() {
		for _, idx := range path {
			if idx > math.MaxUint32 {
				return 0, fmt.Errorf("index %d exceeds uint32", idx)
			}
			binary.LittleEndian.PutUint32(scratch[:4], uint32(idx))
			buf.Write(scratch[:4])
		}
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(v))
		buf.Write(scratch[:])
		entries++
	}
	return entries, nil
}
