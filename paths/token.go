package paths

import (
	"fmt"
	"strconv"
)

type Kind uint8

const (
	KindCall Kind = iota + 1
	KindBranch
	KindIteration
	KindPivot
)

func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindBranch:
		return "branch"
	case KindIteration:
		return "iteration"
	case KindPivot:
		return "pivot"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Token is one alignment decision.
// Key discriminates the construct instance (call name, branch taken, iteration count, pivot value),
// Index is the position among identical siblings in the enclosing scope.
type Token struct {
	Kind  Kind
	Key   string
	Index int
}

func (t Token) String() string {
	return fmt.Sprintf("%s:%s#%d", t.Kind, t.Key, t.Index)
}

// PivotKey renders a pivot value into a token key.
// Equal values of the same type produce equal keys on every device running the same program,
// so pivots should be plain values, not pointers.
func PivotKey(pivot any) string {
	switch pivot := pivot.(type) {
	case nil:
		return "<nil>"
	case string:
		return "string=" + pivot
	case bool:
		return "bool=" + strconv.FormatBool(pivot)
	case int:
		return "int=" + strconv.Itoa(pivot)
	case fmt.Stringer:
		return fmt.Sprintf("%T=%s", pivot, pivot.String())
	}
	return fmt.Sprintf("%T=%v", pivot, pivot)
}
