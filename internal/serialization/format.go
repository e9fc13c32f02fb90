package serialization

import (
	"time"

	"github.com/drift-ml/drift/internal/tensor"
)

// Format constants.
const (
	MagicBytes    = "DRFT"
	FormatVersion = 1

	// FixedHeaderSize covers magic, version, header length and checksum.
	FixedHeaderSize = 44
	ChecksumSize    = 32
	ChecksumOffset  = 12

	// MaxHeaderSize bounds the JSON header so a corrupted length field
	// cannot trigger a huge allocation.
	MaxHeaderSize = 16 << 20
)

// Data type string constants for serialization.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
)

// Header is the JSON header of a .drift file.
type Header struct {
	FormatVersion int          `json:"format_version"`
	CreatedAt     time.Time    `json:"created_at"`
	Run           RunMeta      `json:"run"`
	Tensors       []TensorMeta `json:"tensors"`
}

// RunMeta records where in a training run the snapshot was taken.
type RunMeta struct {
	ID    string  `json:"id"`    // run identifier, shared by all snapshots of one run
	Epoch int     `json:"epoch"` // epoch number at snapshot time
	Step  int64   `json:"step"`  // global optimizer step at snapshot time
	Loss  float64 `json:"loss"`  // training loss at snapshot time
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // state-dict key, e.g. "l1.weight"
	DType  string `json:"dtype"`  // "float32" or "float64"
	Shape  []int  `json:"shape"`  // tensor shape
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // size in bytes
}

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	default:
		return "unknown"
	}
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	default:
		return 0, false
	}
}
