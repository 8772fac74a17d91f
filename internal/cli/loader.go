package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qassist/internal/compiler"
	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/schema"
)

// LoadMode controls how errors are handled during rule loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// RuleSet is what a rules directory defines.
type RuleSet struct {
	Rules     []ir.Rule
	Schemas   []schema.TableSchema
	FileCount int // Number of CUE files found
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

// LoadRules reads the rules and schema blocks of every CUE file in dir:
//
//	rules: risk_stock: {
//		trigger_words: ["风险", "库存"]
//		template:      "SELECT material_name FROM inventory WHERE status = 'risk'"
//	}
//	schema: inventory: {
//		fields: ["material_name", "status"]
//		aliases: { "物料名称": "material_name" }
//	}
//
// Rules come back in CUE field order. A nil RuleSet means the directory
// itself could not be loaded.
func LoadRules(dir string, mode LoadMode) (*RuleSet, []error) {
	// Verify directory exists
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

	set := &RuleSet{FileCount: len(cueFiles)}
	var errs []error

	// schema first: rule templates are checked against it
	schemaErrs := eachField(value, "schema", func(label string, v cue.Value) error {
		ts, err := compiler.CompileSchema(v)
		if err != nil {
			return convertCompileError(err, "schema."+label)
		}
		set.Schemas = append(set.Schemas, ts)
		return nil
	}, mode)
	errs = append(errs, schemaErrs...)
	if mode == LoadModeFailFast && len(errs) > 0 {
		return set, errs
	}

	ruleErrs := eachField(value, "rules", func(label string, v cue.Value) error {
		rule, err := compiler.CompileRule(v)
		if err != nil {
			return convertCompileError(err, "rules."+label)
		}
		set.Rules = append(set.Rules, *rule)
		return nil
	}, mode)
	errs = append(errs, ruleErrs...)

	if len(set.Rules) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoRules, Message: "no rules found"})
	}
	return set, errs
}

// eachField calls fn for every field of the top-level block name.
func eachField(value cue.Value, name string, fn func(string, cue.Value) error, mode LoadMode) []error {
	block := value.LookupPath(cue.ParsePath(name))
	if !block.Exists() {
		return nil
	}
	iter, err := block.Fields()
	if err != nil {
		return []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating %s: %v", name, err)}}
	}
	var errs []error
	for iter.Next() {
		if err := fn(iter.Selector().Unquoted(), iter.Value()); err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return errs
			}
		}
	}
	return errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
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
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// MapFieldToErrorCode maps a compiler error field to a validation code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "trigger_words":
		return compiler.ErrRuleNoTriggers
	case "status":
		return compiler.ErrRuleBadStatus
	case "template":
		return compiler.ErrTemplateParse
	case "fields", "aliases":
		return compiler.ErrTemplateSchema
	default:
		return ErrCodeGeneric
	}
}
