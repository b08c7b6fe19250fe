package note

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/ayakoji/noteshare/store"
)

// Filter is a compiled note filter expression. List requests may carry a
// CEL expression over the declared note fields; rows are matched one by
// one after the base visibility query.
type Filter struct {
	program cel.Program
}

var filterEnv = mustNewFilterEnv()

func mustNewFilterEnv() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("creator_id", cel.IntType),
		cel.Variable("visibility", cel.StringType),
		cel.Variable("pinned", cel.BoolType),
		cel.Variable("created_ts", cel.IntType),
		cel.Variable("title", cel.StringType),
		cel.Variable("content", cel.StringType),
		cel.Variable("tags", cel.ListType(cel.StringType)),
	)
	if err != nil {
		panic(err)
	}
	return env
}

// CompileFilter compiles a CEL filter expression for notes.
func CompileFilter(expression string) (*Filter, error) {
	ast, issues := filterEnv.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrap(issues.Err(), "invalid filter expression")
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.New("filter expression must evaluate to a boolean")
	}

	program, err := filterEnv.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter program")
	}
	return &Filter{program: program}, nil
}

// Match evaluates the filter against one note and its tags.
func (f *Filter) Match(note *store.Note, tags []string) (bool, error) {
	if tags == nil {
		tags = []string{}
	}

	out, _, err := f.program.Eval(map[string]any{
		"creator_id": int64(note.CreatorID),
		"visibility": string(note.Visibility),
		"pinned":     note.Pinned,
		"created_ts": note.CreatedTs,
		"title":      note.Title,
		"content":    note.Content,
		"tags":       tags,
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to evaluate filter")
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.New("filter did not produce a boolean")
	}
	return matched, nil
}
