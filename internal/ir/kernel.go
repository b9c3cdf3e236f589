package ir

// Stage names accepted in kernel definitions.
const (
	StageStatic  = "static"
	StageDynamic = "dynamic"
)

// Kernel is a compiled kernel definition: named slots plus the expression
// text of every output element.
type Kernel struct {
	Name      string       `json:"name"`
	Namespace string       `json:"namespace"`
	Class     string       `json:"class"`
	Inputs    []Slot       `json:"inputs"`
	Outputs   []OutputSlot `json:"outputs"`
}

// Slot declares an input array.
type Slot struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Stage string `json:"stage"`
}

// OutputSlot declares an output array. Exactly one of Exprs and Jacobian is
// set: Exprs holds one expression per element, Jacobian fills the slot
// row-major with the derivatives of another slot.
type OutputSlot struct {
	Name     string        `json:"name"`
	Size     int           `json:"size"`
	Stage    string        `json:"stage"`
	Exprs    []string      `json:"exprs,omitempty"`
	Jacobian *JacobianSpec `json:"jacobian,omitempty"`
}

// JacobianSpec names the differentiated slot and the input it is taken
// with respect to.
type JacobianSpec struct {
	Of  string `json:"of"`
	Wrt string `json:"wrt"`
}

// Input returns the input slot with the given name.
func (k Kernel) Input(name string) (Slot, bool) {
	for _, s := range k.Inputs {
		if s.Name == name {
			return s, true
		}
	}
	return Slot{}, false
}

// Output returns the output slot with the given name.
func (k Kernel) Output(name string) (OutputSlot, bool) {
	for _, s := range k.Outputs {
		if s.Name == name {
			return s, true
		}
	}
	return OutputSlot{}, false
}

// SlotSize returns the size of any slot, input or output.
func (k Kernel) SlotSize(name string) (int, bool) {
	if s, ok := k.Input(name); ok {
		return s.Size, true
	}
	if s, ok := k.Output(name); ok {
		return s.Size, true
	}
	return 0, false
}

// ToValue converts the hashed part of a kernel into a Value tree.
func (k Kernel) ToValue() Value {
	inputs := make(Array, len(k.Inputs))
	for i, s := range k.Inputs {
		inputs[i] = Object{
			"name":  String(s.Name),
			"size":  Int(s.Size),
			"stage": String(s.Stage),
		}
	}
	outputs := make(Array, len(k.Outputs))
	for i, s := range k.Outputs {
		obj := Object{
			"name":  String(s.Name),
			"size":  Int(s.Size),
			"stage": String(s.Stage),
		}
		if s.Jacobian != nil {
			obj["jacobian"] = Object{
				"of":  String(s.Jacobian.Of),
				"wrt": String(s.Jacobian.Wrt),
			}
		} else {
			obj["exprs"] = Strings(s.Exprs)
		}
		outputs[i] = obj
	}
	return Object{
		"ir_version": String(IRVersion),
		"name":       String(k.Name),
		"inputs":     inputs,
		"outputs":    outputs,
	}
}
