// Package cel filters app listings with CEL expressions such as
// `install_type == "user" && process_state == "running"`.
package cel

import (
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/gezibash/idbridge/pkg/client"
	idberrors "github.com/gezibash/idbridge/pkg/errors"
)

// AppVars declares the attributes of an installed app visible to filters.
var AppVars = map[string]*cel.Type{
	"bundle_id":     cel.StringType,
	"name":          cel.StringType,
	"install_type":  cel.StringType,
	"process_state": cel.StringType,
	"debuggable":    cel.BoolType,
	"architectures": cel.ListType(cel.StringType),
}

// Filter is a compiled boolean CEL expression.
type Filter struct {
	program cel.Program
}

// Compile parses and type-checks expr against vars. The expression must
// evaluate to a bool.
func Compile(expr string, vars map[string]*cel.Type) (*Filter, error) {
	opts := make([]cel.EnvOption, 0, len(vars))
	for k, t := range vars {
		opts = append(opts, cel.Variable(k, t))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, idberrors.Wrap(idberrors.KindInvalidArgument, err, "cel env")
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, idberrors.Wrap(idberrors.KindInvalidArgument, issues.Err(), "filter "+expr)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, idberrors.Newf(idberrors.KindInvalidArgument, "filter %s yields %s, want bool", expr, ast.OutputType())
	}

	prog, err := env.Program(ast)
	if err != nil {
		return nil, idberrors.Wrap(idberrors.KindInvalidArgument, err, "filter "+expr)
	}
	return &Filter{program: prog}, nil
}

// CompileApps compiles expr against AppVars.
func CompileApps(expr string) (*Filter, error) {
	return Compile(expr, AppVars)
}

// Match evaluates the filter against attrs. Missing attributes and
// evaluation errors do not match.
func (f *Filter) Match(attrs map[string]any) bool {
	out, _, err := f.program.Eval(attrs)
	if err != nil {
		return false
	}
	if out.Type() != types.BoolType {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// AppAttrs exposes a as filter attributes.
func AppAttrs(a client.App) map[string]any {
	archs := a.Architectures
	if archs == nil {
		archs = []string{}
	}
	return map[string]any{
		"bundle_id":     a.BundleID,
		"name":          a.Name,
		"install_type":  a.InstallType,
		"process_state": a.ProcessState,
		"debuggable":    a.Debuggable,
		"architectures": archs,
	}
}

// Apps returns the apps matched by f, keeping their order. A nil filter
// matches everything.
func (f *Filter) Apps(apps []client.App) []client.App {
	if f == nil {
		return apps
	}
	var out []client.App
	for _, a := range apps {
		if f.Match(AppAttrs(a)) {
			out = append(out, a)
		}
	}
	return out
}
