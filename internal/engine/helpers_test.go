package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/asngen/internal/compiler"
	"github.com/roach88/asngen/internal/constraint"
	"github.com/roach88/asngen/internal/ir"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRule(name string, children ...constraint.Constraint) *compiler.Rule {
	return &compiler.Rule{
		Name:     name,
		Template: constraint.MustTree(children, constraint.All, name),
	}
}

func attr(name string, sources ...string) *constraint.AttrConstraint {
	return constraint.NewAttrConstraint(name, sources...)
}

func memberValues(a *ir.Association, key string) []string {
	out := make([]string, len(a.Members))
	for i, m := range a.Members {
		out[i] = m[key]
	}
	return out
}
