package debugs

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// maxPredicateSteps bounds one evaluation.
const maxPredicateSteps = 1 << 20

var predicateOptions = &syntax.FileOptions{
	Set: true,
}

// Predicate is a starlark expression deciding when a simulation stops.
type Predicate struct {
	src  string
	expr syntax.Expr
}

func CompilePredicate(src string) (*Predicate, error) {
	expr, err := predicateOptions.ParseExpr("predicate", src, 0)
	if err != nil {
		return nil, fmt.Errorf("parse predicate: %w", err)
	}
	return &Predicate{
		src:  src,
		expr: expr,
	}, nil
}

func (p *Predicate) String() string {
	return p.src
}

// Eval reports the truth of the expression with globals converted by ToValue.
func (p *Predicate) Eval(globals map[string]any) (bool, error) {
	env, err := ToStringDict(globals)
	if err != nil {
		return false, err
	}
	thread := &starlark.Thread{
		Name: "predicate",
	}
	thread.SetMaxExecutionSteps(maxPredicateSteps)
	value, err := starlark.EvalExprOptions(predicateOptions, thread, p.expr, env)
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.src, err)
	}
	return bool(value.Truth()), nil
}
