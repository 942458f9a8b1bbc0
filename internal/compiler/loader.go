package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// LoadMode controls how errors are handled during rule loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the rules loaded from a directory or file set.
type LoadResult struct {
	Rules     []*Rule
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// RuleNames returns the loaded rule names in load order.
func (r *LoadResult) RuleNames() []string {
	names := make([]string, len(r.Rules))
	for i, rule := range r.Rules {
		names[i] = rule.Name
	}
	return names
}

// LoadError represents an error that occurred during rule loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load error codes, shared with the CLI output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeNoRules     = "E007" // No rules defined
)

// LoadRules loads, validates and compiles every rule under dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadRules(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rules directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{CUEValue: value, FileCount: len(cueFiles)}
	errs := extractRules(value, mode, result)
	if len(result.Rules) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoRules, Message: "no rules found in rule definitions"})
	}
	return result, errs
}

// LoadRuleFiles compiles the given CUE files independently and merges
// their rules in argument order. A rule name defined twice is an error.
func LoadRuleFiles(paths []string, mode LoadMode) (*LoadResult, []error) {
	if len(paths) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: "no rule files given"}}
	}

	ctx := cuecontext.New()
	result := &LoadResult{FileCount: len(paths)}
	seen := make(map[string]string)
	var errs []error

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}

		value := ctx.CompileBytes(data, cue.Filename(path))
		if err := value.Err(); err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building %s: %v", path, err)})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}

		before := len(result.Rules)
		fileErrs := extractRules(value, mode, result)
		for _, r := range result.Rules[before:] {
			if prev, dup := seen[r.Name]; dup {
				fileErrs = append(fileErrs, &LoadError{
					Code:    ErrDuplicateName,
					Message: fmt.Sprintf("rule %q defined in both %s and %s", r.Name, prev, path),
				})
			}
			seen[r.Name] = path
		}
		errs = append(errs, fileErrs...)
		if len(errs) > 0 && mode == LoadModeFailFast {
			return result, errs
		}
	}

	if len(result.Rules) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoRules, Message: "no rules found"})
	}
	return result, errs
}

// extractRules compiles every field under the top-level `rule` struct,
// in declaration order, appending to result.
func extractRules(value cue.Value, mode LoadMode, result *LoadResult) []error {
	var errs []error

	rulesVal := value.LookupPath(cue.ParsePath("rule"))
	if !rulesVal.Exists() {
		return nil
	}

	iter, err := rulesVal.Fields()
	if err != nil {
		return []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating rules: %v", err)}}
	}

	for iter.Next() {
		label := iter.Label()
		spec, err := ParseRule(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, label))
			if mode == LoadModeFailFast {
				return errs
			}
			continue
		}

		if verrs := Validate(spec); len(verrs) > 0 {
			for _, ve := range verrs {
				errs = append(errs, &LoadError{
					Code:    ve.Code,
					Message: fmt.Sprintf("rule.%s.%s: %s", label, ve.Field, ve.Message),
					Pos:     spec.Pos,
				})
			}
			if mode == LoadModeFailFast {
				return errs
			}
			continue
		}

		rule, err := newRule(spec)
		if err != nil {
			errs = append(errs, convertCompileError(err, label))
			if mode == LoadModeFailFast {
				return errs
			}
			continue
		}
		result.Rules = append(result.Rules, rule)
	}
	return errs
}

// FindCUEFiles walks the directory and returns all .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// convertCompileError converts a compiler error for the rule labelled
// label to a LoadError with position info.
func convertCompileError(err error, label string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		if compileErr.Rule == "" {
			compileErr.Rule = label
		}
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Path(), compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("rule.%s: %v", label, err),
	}
}

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "constraints":
		return ErrRuleNoConstraints
	case field == "reduce" || strings.HasSuffix(field, ".reduce"):
		return ErrInvalidReduce
	case strings.HasSuffix(field, ".force_reprocess"):
		return ErrInvalidForceReprocess
	case strings.HasSuffix(field, ".onlyif"):
		return ErrInvalidOnlyIf
	case strings.HasSuffix(field, ".test"):
		return ErrInvalidValueTest
	case field == "asn_name":
		return ErrInvalidAsnName
	case field == "validity" || strings.HasPrefix(field, "validity."):
		return ErrInvalidValidity
	case field == "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}
