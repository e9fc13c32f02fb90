package nn

import (
	"fmt"

	"github.com/drift-ml/drift/tensor"
)

// Module is the contract between a network and the rest of the toolkit:
// an enumerable parameter list for optimizers and a state dict for
// checkpointing.
type Module interface {
	// Parameters returns all trainable parameters, nested modules
	// included.
	Parameters() []*Parameter

	// StateDict returns a map of parameter names to raw tensors.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads parameter values from a state dictionary.
	// Shapes must match the module's architecture exactly.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// StateDictOf builds a state dict from a parameter list, cloning each
// value tensor so the snapshot is decoupled from further training.
func StateDictOf(params []*Parameter) map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		sd[p.Name()] = p.Tensor().Raw().Clone()
	}
	return sd
}

// LoadStateDictInto copies values from a state dict into a parameter
// list. Every parameter must be present with a matching shape and dtype.
func LoadStateDictInto(params []*Parameter, stateDict map[string]*tensor.RawTensor) error {
	for _, p := range params {
		raw, ok := stateDict[p.Name()]
		if !ok {
			return fmt.Errorf("missing %q in state dict", p.Name())
		}
		if !raw.Shape().Equal(p.Tensor().Shape()) {
			return fmt.Errorf("%q shape mismatch: expected %v, got %v", p.Name(), p.Tensor().Shape(), raw.Shape())
		}
		if raw.DType() != tensor.Float32 {
			return fmt.Errorf("%q dtype mismatch: expected float32, got %v", p.Name(), raw.DType())
		}
		copy(p.Tensor().Data(), raw.AsFloat32())
	}
	return nil
}
