package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparsefem/sparsefem/internal/arith"
	"github.com/sparsefem/sparsefem/internal/tensor"
)

func sampleTensors(t *testing.T) map[string]*tensor.Tensor[float64] {
	t.Helper()
	fake := gofakeit.New(1234567890)

	k, err := tensor.New(tensor.Shape{50, 50}, arith.Float64, 4)
	require.NoError(t, err)
	for range 120 {
		k.Set(fake.Float64Range(-10, 10), fake.IntRange(0, 49), fake.IntRange(0, 49))
	}

	f, err := tensor.FromFlatValues([]float64{0, 1.5, 0, -2}, tensor.Shape{4}, arith.Float64)
	require.NoError(t, err)

	c, err := tensor.New(tensor.Shape{3, 3, 3}, arith.Float64, 2)
	require.NoError(t, err)
	c.Set(0.25, 2, 0, 1)

	return map[string]*tensor.Tensor[float64]{"K": k, "f": f, "c": c}
}

func encode(t *testing.T, tensors map[string]*tensor.Tensor[float64], meta map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tensors, meta))
	return buf.Bytes()
}

func TestWriteRead(t *testing.T) {
	src := sampleTensors(t)
	raw := encode(t, src, map[string]string{"mesh": "channel"})

	f, err := Read(bytes.NewReader(raw), ReaderOptions{})
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, f.Header.FormatVersion)
	assert.Equal(t, "channel", f.Header.Metadata["mesh"])
	_, err = uuid.Parse(f.Header.ID)
	assert.NoError(t, err)
	assert.Equal(t, FlagHasMetadata, f.Flags&FlagHasMetadata)
	require.Len(t, f.Tensors, len(src))
	for name, want := range src {
		assert.True(t, tensor.Equal(want, f.Tensors[name]), "tensor %s", name)
	}

	// Data section starts on the alignment boundary.
	headerSize := int64(len(raw)) - FixedHeaderSize
	for _, m := range f.Header.Tensors {
		headerSize -= m.Size
	}
	assert.Zero(t, (FixedHeaderSize+headerSize)%HeaderAlignment)
}

func TestWrite_Deterministic(t *testing.T) {
	src := sampleTensors(t)
	a, err := Read(bytes.NewReader(encode(t, src, nil)), ReaderOptions{})
	require.NoError(t, err)

	names := make([]string, 0, len(a.Header.Tensors))
	for _, m := range a.Header.Tensors {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"K", "c", "f"}, names)
	assert.Zero(t, a.Flags)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k.sfem")
	src := sampleTensors(t)
	require.NoError(t, Save(path, map[string]*tensor.Tensor[float64]{"K": src["K"]}, nil))

	f, err := Load(path, ReaderOptions{})
	require.NoError(t, err)

	k, err := f.Tensor("")
	require.NoError(t, err)
	assert.True(t, tensor.Equal(src["K"], k))

	_, err = f.Tensor("M")
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

func TestRead_ChecksumMismatch(t *testing.T) {
	raw := encode(t, sampleTensors(t), nil)
	raw[len(raw)-1] ^= 0xFF

	_, err := Read(bytes.NewReader(raw), ReaderOptions{})
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	// Skipping the checksum still decodes, with the flipped value.
	_, err = Read(bytes.NewReader(raw), ReaderOptions{SkipChecksumValidation: true})
	assert.NoError(t, err)
}

func TestRead_Errors(t *testing.T) {
	raw := encode(t, sampleTensors(t), nil)

	badMagic := bytes.Clone(raw)
	copy(badMagic, "BORN")
	_, err := Read(bytes.NewReader(badMagic), ReaderOptions{})
	assert.ErrorIs(t, err, ErrInvalidMagic)

	badVersion := bytes.Clone(raw)
	badVersion[4] = 9
	_, err = Read(bytes.NewReader(badVersion), ReaderOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Read(bytes.NewReader(raw[:len(raw)-3]), ReaderOptions{})
	assert.ErrorContains(t, err, "truncated")

	_, err = Read(bytes.NewReader(raw[:10]), ReaderOptions{})
	assert.Error(t, err)
}

func TestWrite_InvalidName(t *testing.T) {
	src := sampleTensors(t)
	var buf bytes.Buffer

	err := Write(&buf, map[string]*tensor.Tensor[float64]{"../K": src["K"]}, nil)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid_name", verr.Type)

	assert.Error(t, Write(&buf, map[string]*tensor.Tensor[float64]{"K": nil}, nil))
}

// craft assembles a .sfem stream around a hand-written header, with a valid
// checksum over data.
func craft(t *testing.T, header Header, data []byte) []byte {
	t.Helper()
	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed, MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(data)))
	sum := ComputeChecksum(data)
	copy(fixed[ChecksumOffset:], sum[:])

	var buf bytes.Buffer
	buf.Write(fixed)
	buf.Write(headerJSON)
	buf.Write(make([]byte, alignedDataOffset(int64(len(headerJSON)))-FixedHeaderSize-int64(len(headerJSON))))
	buf.Write(data)
	return buf.Bytes()
}

func TestRead_OverflowingRegion(t *testing.T) {
	// One rank 1 entry: index 0, value 1.0.
	data := make([]byte, 12)
	binary.LittleEndian.PutUint64(data[4:], math.Float64bits(1))

	good := craft(t, Header{FormatVersion: FormatVersion, Tensors: []TensorMeta{
		{Name: "v", Shape: []int{4}, Entries: 1, Offset: 0, Size: 12},
	}}, data)
	f, err := Read(bytes.NewReader(good), ReaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, f.Tensors["v"].Get(0))

	headers := map[string]TensorMeta{
		"offset":  {Name: "v", Shape: []int{4}, Entries: 1, Offset: math.MaxInt64 - 3, Size: 12},
		"size":    {Name: "v", Shape: []int{4}, Entries: 1, Offset: 4, Size: math.MaxInt64 - 1},
		"entries": {Name: "v", Shape: []int{4}, Entries: math.MaxInt64/6 + 1, Offset: 0, Size: 12},
	}
	for name, meta := range headers {
		raw := craft(t, Header{FormatVersion: FormatVersion, Tensors: []TensorMeta{meta}}, data)
		for _, level := range []ValidationLevel{ValidationStrict, ValidationNormal, ValidationNone} {
			var verr *ValidationError
			require.NotPanics(t, func() {
				_, err = Read(bytes.NewReader(raw), ReaderOptions{ValidationLevel: level})
			}, "%s at level %d", name, level)
			require.True(t, errors.As(err, &verr), "%s at level %d: %v", name, level, err)
			assert.Equal(t, "out_of_bounds", verr.Type)
		}
	}
}

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name    string
		tensors []TensorMeta
		want    string
	}{
		{
			name: "valid",
			tensors: []TensorMeta{
				{Name: "a", Shape: []int{4}, Entries: 2, Offset: 0, Size: 24},
				{Name: "b", Shape: []int{2, 2}, Entries: 1, Offset: 24, Size: 16},
			},
		},
		{
			name:    "negative",
			tensors: []TensorMeta{{Name: "a", Shape: []int{4}, Entries: 1, Offset: -1, Size: 12}},
			want:    "negative_offset",
		},
		{
			name:    "size mismatch",
			tensors: []TensorMeta{{Name: "a", Shape: []int{4}, Entries: 2, Offset: 0, Size: 12}},
			want:    "size_mismatch",
		},
		{
			name:    "out of bounds",
			tensors: []TensorMeta{{Name: "a", Shape: []int{4}, Entries: 4, Offset: 0, Size: 48}},
			want:    "out_of_bounds",
		},
		{
			name:    "offset overflow",
			tensors: []TensorMeta{{Name: "a", Shape: []int{4}, Entries: 1, Offset: math.MaxInt64 - 3, Size: 12}},
			want:    "out_of_bounds",
		},
		{
			name:    "entry count overflow",
			tensors: []TensorMeta{{Name: "a", Shape: []int{4}, Entries: math.MaxInt64 / 6, Offset: 0, Size: 12}},
			want:    "out_of_bounds",
		},
		{
			name: "overlap",
			tensors: []TensorMeta{
				{Name: "a", Shape: []int{4}, Entries: 2, Offset: 0, Size: 24},
				{Name: "b", Shape: []int{4}, Entries: 1, Offset: 12, Size: 12},
			},
			want: "offset_overlap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, 40)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.want, verr.Type)
		})
	}
}

func TestValidateHeader(t *testing.T) {
	dup := &Header{Tensors: []TensorMeta{
		{Name: "a", Shape: []int{2}},
		{Name: "a", Shape: []int{2}},
	}}
	assert.Error(t, ValidateHeader(dup, 0, ValidationNormal))
	assert.NoError(t, ValidateHeader(dup, 0, ValidationNone))

	badShape := &Header{Tensors: []TensorMeta{{Name: "a", Shape: []int{2, 0}}}}
	err := ValidateHeader(badShape, 0, ValidationNormal)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid_shape", verr.Type)

	assert.Error(t, ValidateTensorName(""))
	assert.Error(t, ValidateTensorName("a\x00b"))
	assert.NoError(t, ValidateTensorName("K_global"))
}
