package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/drift-ml/drift/internal/tensor"
)

// WriteFile writes a state dict and run metadata to path as a .drift
// file. The write is atomic: data is staged in a temp file in the same
// directory and renamed over path on success.
func WriteFile(path string, stateDict map[string]*tensor.RawTensor, run RunMeta) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := Encode(tmp, stateDict, run); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Encode writes the .drift representation of stateDict to w.
func Encode(w io.Writer, stateDict map[string]*tensor.RawTensor, run RunMeta) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
		Run:           run,
		Tensors:       make([]TensorMeta, 0, len(names)),
	}

	var offset int64
	var data bytes.Buffer
	for _, name := range names {
		raw := stateDict[name]
		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  append([]int(nil), raw.Shape()...),
			Offset: offset,
			Size:   size,
		})
		data.Write(raw.Data())
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	sum := sha256Concat(headerJSON, data.Bytes())

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed, MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], uint32(len(headerJSON)))
	copy(fixed[ChecksumOffset:], sum[:])

	for _, chunk := range [][]byte{fixed, headerJSON, data.Bytes()} {
		if _, err := w.Write(chunk); err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
	}
	return nil
}

func sha256Concat(header, data []byte) [ChecksumSize]byte {
	buf := make([]byte, 0, len(header)+len(data))
	buf = append(buf, header...)
	buf = append(buf, data...)
	return ComputeChecksum(buf)
}
