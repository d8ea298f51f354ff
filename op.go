package dbquery

import "strconv"

// Op is the kind of statement a builder assembles.
type Op uint8

// Statement operations.
const (
	OpUnset Op = iota
	OpInsert
	OpDelete
	OpUpdate
	OpSelect
)

var opNames = [...]string{
	OpUnset:  "Unset",
	OpInsert: "Insert",
	OpDelete: "Delete",
	OpUpdate: "Update",
	OpSelect: "Select",
}

// String returns the operation name.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "Op(" + strconv.Itoa(int(o)) + ")"
}

// Is reports whether o is one of the given operations.
func (o Op) Is(ops ...Op) bool {
	for _, op := range ops {
		if o == op {
			return true
		}
	}
	return false
}

// Mutates reports whether the operation writes data.
func (o Op) Mutates() bool {
	return o.Is(OpInsert, OpUpdate, OpDelete)
}
