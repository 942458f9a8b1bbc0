package compiler

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a problem in one rule definition.
//
// Rule is the rule label when known. Field is the dotted path of the
// offending option inside the rule, such as "constraints[0].attr.onlyif".
type CompileError struct {
	Rule    string
	Field   string
	Message string
	Pos     token.Pos
}

// Path returns Field qualified by the rule label, e.g.
// "rule.Asn_Image.constraints[0].attr.onlyif".
func (e *CompileError) Path() string {
	if e.Rule == "" {
		return e.Field
	}
	return "rule." + e.Rule + "." + e.Field
}

func (e *CompileError) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	b.WriteString(e.Path())
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// withRule stamps the rule label onto a CompileError that lacks one.
func withRule(err error, rule string) error {
	var ce *CompileError
	if errors.As(err, &ce) && ce.Rule == "" {
		ce.Rule = rule
	}
	return err
}

// cueError turns a CUE evaluation error into a CompileError at the first
// reported position. Further errors are counted in the message.
func cueError(err error) error {
	list := cueerrors.Errors(err)
	for _, e := range list {
		positions := cueerrors.Positions(e)
		if len(positions) == 0 {
			continue
		}
		msg := e.Error()
		if rest := len(list) - 1; rest > 0 {
			msg = fmt.Sprintf("%s (and %d more)", msg, rest)
		}
		return &CompileError{Field: "cue", Message: msg, Pos: positions[0]}
	}
	return err
}
