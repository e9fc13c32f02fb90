package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/drift-ml/drift/internal/tensor"
)

// ReadFile reads a .drift file, verifies its checksum and returns the
// state dict and header.
func ReadFile(path string) (map[string]*tensor.RawTensor, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads the .drift representation from r.
func Decode(r io.Reader) (map[string]*tensor.RawTensor, Header, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[:4]) != MagicBytes {
		return nil, Header{}, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(fixed[4:8]); v != FormatVersion {
		return nil, Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	headerLen := binary.LittleEndian.Uint32(fixed[8:12])
	if headerLen > MaxHeaderSize {
		return nil, Header{}, ErrHeaderTooLarge
	}
	var stored [ChecksumSize]byte
	copy(stored[:], fixed[ChecksumOffset:])

	headerJSON := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, Header{}, fmt.Errorf("failed to parse header: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to read tensor data: %w", err)
	}

	if err := ValidateChecksum(sha256Concat(headerJSON, data), stored); err != nil {
		return nil, Header{}, err
	}

	stateDict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		raw, err := materialize(meta, data)
		if err != nil {
			return nil, Header{}, err
		}
		stateDict[meta.Name] = raw
	}
	return stateDict, header, nil
}

func materialize(meta TensorMeta, data []byte) (*tensor.RawTensor, error) {
	dt, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, fmt.Errorf("tensor %q: unknown dtype %q", meta.Name, meta.DType)
	}
	if meta.Offset < 0 || meta.Size < 0 || meta.Offset+meta.Size > int64(len(data)) {
		return nil, fmt.Errorf("tensor %q: %w", meta.Name, ErrOutOfBounds)
	}
	raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dt)
	if err != nil {
		return nil, fmt.Errorf("tensor %q: %w", meta.Name, err)
	}
	if int64(raw.ByteSize()) != meta.Size {
		return nil, fmt.Errorf("tensor %q: size %d does not match shape %v", meta.Name, meta.Size, meta.Shape)
	}
	copy(raw.Data(), data[meta.Offset:meta.Offset+meta.Size])
	return raw, nil
}
