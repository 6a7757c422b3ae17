package renderer

import (
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/conneroisu/partials/internal/partial"
	"github.com/conneroisu/partials/internal/tag"
	"github.com/conneroisu/partials/internal/view"
)

// templatePartial is the partial as templates see it. Methods return safe
// pongo2 values so resolved HTML is not escaped a second time.
type templatePartial struct {
	p     *partial.Partial
	state *renderState
}

// Get resolves a section.
func (t *templatePartial) Get(name string) (*pongo2.Value, error) {
	return t.safe(t.p.Read(name))
}

// Present reports whether a section has content.
func (t *templatePartial) Present(name string) bool {
	return t.p.Present(name)
}

// Write appends content to a section and renders nothing.
func (t *templatePartial) Write(name string, content ...any) *pongo2.Value {
	t.p.Write(name, unwrapArgs(content)...)
	return pongo2.AsSafeValue("")
}

// Section returns a section binding.
func (t *templatePartial) Section(name string) *templateSection {
	return &templateSection{s: t.p.Section(name), state: t.state}
}

// Required declares a section whose absence fails the render.
func (t *templatePartial) Required(name string) *templateDeclaration {
	return &templateDeclaration{d: t.p.Section(name).Required(), state: t.state}
}

// Optional declares a section whose absence renders nothing.
func (t *templatePartial) Optional(name string) *templateDeclaration {
	return &templateDeclaration{d: t.p.Section(name).Optional(), state: t.state}
}

// Tag builds an element around a section. Trailing args are attribute
// name and value pairs.
func (t *templatePartial) Tag(name, element string, args ...any) (*pongo2.Value, error) {
	return t.Section(name).Tag(element, args...)
}

// Yield evaluates the chunks captured on a section with args.
func (t *templatePartial) Yield(name string, args ...any) (*pongo2.Value, error) {
	if err := t.p.Section(name).Yield(unwrapArgs(args)...); err != nil {
		return nil, t.state.fail(err)
	}
	return pongo2.AsSafeValue(""), nil
}

// Call dispatches name the way the partial does: helpers run, "name?"
// reports presence, a bare name resolves the section.
func (t *templatePartial) Call(name string, args ...any) (*pongo2.Value, error) {
	out, err := t.p.Call(name, unwrapArgs(args)...)
	if err != nil {
		return nil, t.state.fail(err)
	}
	switch v := out.(type) {
	case nil:
		return pongo2.AsSafeValue(""), nil
	case bool:
		return pongo2.AsValue(v), nil
	case *partial.Section:
		return t.safe(v.Value())
	default:
		return pongo2.AsSafeValue(view.Stringify(v)), nil
	}
}

// Names lists the sections written so far.
func (t *templatePartial) Names() []string {
	return t.p.Names()
}

func (t *templatePartial) safe(out string, err error) (*pongo2.Value, error) {
	if err != nil {
		return nil, t.state.fail(err)
	}
	return pongo2.AsSafeValue(out), nil
}

type templateSection struct {
	s     *partial.Section
	state *renderState
}

func (t *templateSection) Value() (*pongo2.Value, error) {
	return t.safe(t.s.Value())
}

func (t *templateSection) Present() bool {
	return t.s.Present()
}

func (t *templateSection) Required() *templateDeclaration {
	return &templateDeclaration{d: t.s.Required(), state: t.state}
}

func (t *templateSection) Optional() *templateDeclaration {
	return &templateDeclaration{d: t.s.Optional(), state: t.state}
}

func (t *templateSection) Tag(element string, args ...any) (*pongo2.Value, error) {
	attrs, err := pairs(args)
	if err != nil {
		return nil, t.state.fail(err)
	}
	return t.safe(t.s.Tag(element, attrs))
}

func (t *templateSection) A(args ...any) (*pongo2.Value, error)    { return t.Tag("a", args...) }
func (t *templateSection) Div(args ...any) (*pongo2.Value, error)  { return t.Tag("div", args...) }
func (t *templateSection) P(args ...any) (*pongo2.Value, error)    { return t.Tag("p", args...) }
func (t *templateSection) Span(args ...any) (*pongo2.Value, error) { return t.Tag("span", args...) }
func (t *templateSection) Li(args ...any) (*pongo2.Value, error)   { return t.Tag("li", args...) }
func (t *templateSection) H1(args ...any) (*pongo2.Value, error)   { return t.Tag("h1", args...) }
func (t *templateSection) H2(args ...any) (*pongo2.Value, error)   { return t.Tag("h2", args...) }
func (t *templateSection) H3(args ...any) (*pongo2.Value, error)   { return t.Tag("h3", args...) }

// String lets a section be passed where templates expect text.
func (t *templateSection) String() string {
	return t.s.String()
}

func (t *templateSection) safe(out string, err error) (*pongo2.Value, error) {
	if err != nil {
		return nil, t.state.fail(err)
	}
	return pongo2.AsSafeValue(out), nil
}

type templateDeclaration struct {
	d     *partial.Declaration
	state *renderState
}

func (t *templateDeclaration) Value() (*pongo2.Value, error) {
	return t.safe(t.d.Value())
}

func (t *templateDeclaration) Present() bool {
	return t.d.Section().Present()
}

func (t *templateDeclaration) Tag(element string, args ...any) (*pongo2.Value, error) {
	attrs, err := pairs(args)
	if err != nil {
		return nil, t.state.fail(err)
	}
	return t.safe(t.d.Tag(element, attrs))
}

func (t *templateDeclaration) A(args ...any) (*pongo2.Value, error)    { return t.Tag("a", args...) }
func (t *templateDeclaration) Div(args ...any) (*pongo2.Value, error)  { return t.Tag("div", args...) }
func (t *templateDeclaration) P(args ...any) (*pongo2.Value, error)    { return t.Tag("p", args...) }
func (t *templateDeclaration) Span(args ...any) (*pongo2.Value, error) { return t.Tag("span", args...) }
func (t *templateDeclaration) Li(args ...any) (*pongo2.Value, error)   { return t.Tag("li", args...) }
func (t *templateDeclaration) H1(args ...any) (*pongo2.Value, error)   { return t.Tag("h1", args...) }
func (t *templateDeclaration) H2(args ...any) (*pongo2.Value, error)   { return t.Tag("h2", args...) }
func (t *templateDeclaration) H3(args ...any) (*pongo2.Value, error)   { return t.Tag("h3", args...) }

func (t *templateDeclaration) safe(out string, err error) (*pongo2.Value, error) {
	if err != nil {
		return nil, t.state.fail(err)
	}
	return pongo2.AsSafeValue(out), nil
}

// helperFunc exposes a view helper as a template function.
func helperFunc(v *view.Context, state *renderState, name string) func(args ...any) (*pongo2.Value, error) {
	return func(args ...any) (*pongo2.Value, error) {
		out, err := v.Call(name, unwrapArgs(args)...)
		if err != nil {
			return nil, state.fail(fmt.Errorf("helper %s: %w", name, err))
		}
		return pongo2.AsSafeValue(out), nil
	}
}

// pairs reads template arguments as attribute name and value pairs. A single
// map argument is used as the attribute bag directly.
func pairs(args []any) (tag.Attributes, error) {
	args = unwrapArgs(args)
	if len(args) == 1 {
		if attrs, ok := view.AsAttributes(args[0]); ok {
			return attrs, nil
		}
	}
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("attributes must be name and value pairs, got %d arguments", len(args))
	}

	attrs := make(tag.Attributes, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || key == "" {
			return nil, fmt.Errorf("attribute name must be a non-empty string, got %v", args[i])
		}
		attrs[key] = args[i+1]
	}
	return attrs, nil
}

// unwrapArgs replaces template bindings with the values they wrap.
func unwrapArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case *templateSection:
			out[i] = v.s
		case *templateDeclaration:
			out[i] = v.d
		case *pongo2.Value:
			out[i] = v.Interface()
		default:
			out[i] = arg
		}
	}
	return out
}
