package partial

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/partials/internal/logging"
	"github.com/conneroisu/partials/internal/view"
)

// Helper is a function scoped to one partial.
type Helper = view.Helper

// Partial holds the named sections of one template render.
type Partial struct {
	view     *view.Context
	logger   logging.Logger
	sections map[string]*Section
	locals   map[string]string
	helpers  map[string]Helper
}

// New creates a partial bound to v. locals is copied; a local supplies the
// value of its section for as long as that section has no content.
func New(v *view.Context, locals map[string]string) *Partial {
	if v == nil {
		v = view.New(context.Background())
	}
	return &Partial{
		view:     v,
		logger:   v.Logger().WithComponent("partial"),
		sections: make(map[string]*Section),
		locals:   maps.Clone(locals),
		helpers:  make(map[string]Helper),
	}
}

// View returns the rendering context the partial is bound to.
func (p *Partial) View() *view.Context {
	return p.view
}

func (p *Partial) context() context.Context {
	return p.view.Context()
}

// Section returns the section for name, creating it when absent.
func (p *Partial) Section(name string) *Section {
	s, ok := p.sections[name]
	if !ok {
		s = newSection(p, name)
		p.sections[name] = s
	}
	return s
}

// Lookup returns the section for name without creating it.
func (p *Partial) Lookup(name string) (*Section, bool) {
	s, ok := p.sections[name]
	return s, ok
}

// Names returns the names of the materialised sections in sorted order.
func (p *Partial) Names() []string {
	return slices.Sorted(maps.Keys(p.sections))
}

// Local returns the local value supplied for name at construction.
func (p *Partial) Local(name string) (string, bool) {
	v, ok := p.locals[name]
	return v, ok
}

// Write appends content to the name section. See Section.Write.
func (p *Partial) Write(name string, content ...any) {
	p.Section(name).Write(content...)
}

// Read resolves the name section.
func (p *Partial) Read(name string) (string, error) {
	return p.Section(name).Value()
}

// ContentFor reads the name section when called without content. With
// content it writes and returns nil, so reading back always takes a second,
// content-less call.
func (p *Partial) ContentFor(name string, content ...any) (any, error) {
	if len(content) > 0 {
		p.Write(name, content...)
		return nil, nil
	}
	return p.Read(name)
}

// Present reports whether the name section has content, counting locals.
func (p *Partial) Present(name string) bool {
	if s, ok := p.sections[name]; ok {
		return s.Present()
	}
	local, _ := p.Local(name)
	return local != ""
}

// Slice resolves several sections at once, keyed by name.
func (p *Partial) Slice(names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		v, err := p.Read(name)
		if err != nil {
			return nil, fmt.Errorf("slice %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// Component returns the name section as a templ component.
func (p *Partial) Component(name string) templ.Component {
	return p.Section(name)
}

// ContentFrom copies the current value of each named section of src into
// the section of the same name on p. Nothing is appended unless every source
// resolves.
func (p *Partial) ContentFrom(src *Partial, names ...string) error {
	pairs := make([]rename, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, rename{from: name, to: name})
	}
	return p.copyFrom(src, pairs)
}

// ContentFromMap copies src sections into renamed sections of p, keyed
// source name to target name. Pairs are copied in source-name order.
func (p *Partial) ContentFromMap(src *Partial, renames map[string]string) error {
	pairs := make([]rename, 0, len(renames))
	for _, from := range slices.Sorted(maps.Keys(renames)) {
		pairs = append(pairs, rename{from: from, to: renames[from]})
	}
	return p.copyFrom(src, pairs)
}

type rename struct {
	from, to string
}

// copyFrom resolves every source section of src now, then appends the texts
// to p's target sections. A section src never materialised counts as empty,
// or as its local, and is not created on src.
func (p *Partial) copyFrom(src *Partial, pairs []rename) error {
	if src == nil {
		return fmt.Errorf("content from: source partial is nil")
	}

	texts := make([]string, len(pairs))
	for i, pair := range pairs {
		s, ok := src.Lookup(pair.from)
		if !ok {
			texts[i], _ = src.Local(pair.from)
			continue
		}
		text, err := s.Resolve(p.context())
		if err != nil {
			return fmt.Errorf("content from %q: %w", pair.from, err)
		}
		texts[i] = text
	}

	for i, pair := range pairs {
		target := p.Section(pair.to)
		target.units = append(target.units, forwarded(texts[i], nil))
		p.logger.Debug(p.context(), "content forwarded", "from", pair.from, "to", pair.to, "bytes", len(texts[i]))
	}
	return nil
}

// Helper registers fn under name on this partial only. The view's helper set
// is never touched.
func (p *Partial) Helper(name string, fn Helper) error {
	if name == "" {
		return fmt.Errorf("partial: helper name is required")
	}
	if fn == nil {
		return fmt.Errorf("partial: helper %q is nil", name)
	}
	p.helpers[name] = fn
	return nil
}

// Helpers registers every helper in fns. See Helper.
func (p *Partial) Helpers(fns map[string]Helper) error {
	for _, name := range slices.Sorted(maps.Keys(fns)) {
		if err := p.Helper(name, fns[name]); err != nil {
			return err
		}
	}
	return nil
}

// HasHelper reports whether name is a partial-scoped helper.
func (p *Partial) HasHelper(name string) bool {
	_, ok := p.helpers[name]
	return ok
}

// CallHelper invokes a partial-scoped helper.
func (p *Partial) CallHelper(name string, args ...any) (string, error) {
	fn, ok := p.helpers[name]
	if !ok {
		return "", fmt.Errorf("partial: undefined helper %q", name)
	}
	return fn(p.context(), args...)
}

func (p *Partial) callHelper(name string, args ...any) (string, error) {
	if p.HasHelper(name) {
		return p.CallHelper(name, args...)
	}
	return p.view.Call(name, args...)
}

// Call dispatches name the way a template refers to it: a partial helper is
// invoked; "name?" reports presence; without args the section is returned;
// with args the content is written and nil is returned.
func (p *Partial) Call(name string, args ...any) (any, error) {
	if p.HasHelper(name) {
		return p.CallHelper(name, args...)
	}
	if slot, ok := strings.CutSuffix(name, "?"); ok {
		return p.Present(slot), nil
	}
	if len(args) == 0 {
		return p.Section(name), nil
	}
	p.Write(name, args...)
	return nil, nil
}
