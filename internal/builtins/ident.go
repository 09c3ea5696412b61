package builtins

import (
	"github.com/google/uuid"

	"artlang/internal/value"
	"artlang/internal/vm"
)

func init() {
	add(&Declaration{
		Builtin: vm.Builtin{Name: "new.id", Arity: 0, Fn: biNewID},
		ArgTypes: nil, Returns: []string{"string"},
		Example: `new.id`,
	})
}

// newHandleID mints a short, collision-resistant handle for external
// resources (sockets, db connections) that need a name the language can
// hold onto without exposing the underlying Go pointer.
func newHandleID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func biNewID(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	return value.StringVal(uuid.NewString()), nil
}
