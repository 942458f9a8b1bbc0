package compiler

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/roach88/asngen/internal/ir"
)

// predicateEnv is the type environment onlyif and validity expressions
// compile against. Attributes are reached as item.name or item["name"].
var predicateEnv = map[string]any{
	"item": map[string]string{},
}

// CompilePredicate compiles an onlyif or validity expression into an item
// predicate.
//
// The expression must evaluate to a bool. A runtime error while
// evaluating (e.g. a missing attribute used in arithmetic) counts as false.
func CompilePredicate(src string) (func(ir.Item) bool, error) {
	program, err := expr.Compile(src, expr.Env(predicateEnv), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling predicate %q: %w", src, err)
	}
	return func(item ir.Item) bool {
		return runPredicate(program, item)
	}, nil
}

func runPredicate(program *vm.Program, item ir.Item) bool {
	out, err := expr.Run(program, map[string]any{"item": map[string]string(item)})
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}
