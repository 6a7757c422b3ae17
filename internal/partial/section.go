package partial

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/partials/internal/tag"
	"github.com/conneroisu/partials/internal/view"
)

// Section is the ordered, append-only content buffer of one named slot.
type Section struct {
	tagShortcuts

	name   string
	owner  *Partial
	units  []unit
	attrs  tag.Attributes
	chunks []ChunkFunc
}

var _ templ.Component = (*Section)(nil)

func newSection(owner *Partial, name string) *Section {
	s := &Section{
		name:  name,
		owner: owner,
		attrs: tag.Attributes{},
	}
	s.tagShortcuts = tagShortcuts{build: s.Tag}
	return s
}

// Name returns the slot name.
func (s *Section) Name() string {
	return s.name
}

// Len returns the number of appended units.
func (s *Section) Len() int {
	return len(s.units)
}

// Write appends one unit per argument.
//
// Strings, template.HTML and fmt.Stringer values are stored as literals.
// ContentFunc, func(context.Context) (string, error) and func() string are
// deferred until resolution. templ components render at resolution time. A
// *Section is resolved immediately and its current value is stored, so later
// writes to either side stay independent. Attribute bags are merged into the
// section's options instead of being appended.
func (s *Section) Write(content ...any) {
	for _, c := range content {
		s.write(c)
	}
}

func (s *Section) write(c any) {
	if attrs, ok := view.AsAttributes(c); ok {
		s.attrs = s.attrs.Merge(attrs)
		return
	}

	switch v := c.(type) {
	case nil:
	case *Section:
		if v != nil {
			s.units = append(s.units, v.snapshot(s.owner.context()))
		}
	case *Declaration:
		if v != nil {
			s.units = append(s.units, v.section.snapshot(s.owner.context()))
		}
	case string:
		s.units = append(s.units, literal(v))
	case template.HTML:
		s.units = append(s.units, literal(string(v)))
	case ContentFunc:
		if v != nil {
			s.units = append(s.units, deferred(v))
		}
	case func(context.Context) (string, error):
		if v != nil {
			s.units = append(s.units, deferred(v))
		}
	case func() string:
		if v != nil {
			s.units = append(s.units, deferred(func(context.Context) (string, error) { return v(), nil }))
		}
	case templ.Component:
		s.units = append(s.units, renderable(v))
	case fmt.Stringer:
		s.units = append(s.units, literal(v.String()))
	default:
		s.units = append(s.units, literal(fmt.Sprint(v)))
	}
}

// Defer appends fn to be evaluated each time the section resolves.
func (s *Section) Defer(fn ContentFunc) {
	s.Write(fn)
}

// snapshot resolves the section now and freezes the result.
func (s *Section) snapshot(ctx context.Context) unit {
	text, err := s.Resolve(ctx)
	s.owner.logger.Debug(ctx, "section forwarded", "from", s.name, "bytes", len(text))
	return forwarded(text, err)
}

// Capture holds fn back until Yield provides its arguments.
func (s *Section) Capture(fn ChunkFunc) {
	if fn != nil {
		s.chunks = append(s.chunks, fn)
	}
}

// Yield evaluates every captured chunk with args, in capture order, and
// appends the results.
func (s *Section) Yield(args ...any) error {
	ctx := s.owner.context()
	for _, chunk := range s.chunks {
		out, err := chunk(ctx, args...)
		if err != nil {
			return err
		}
		s.units = append(s.units, literal(out))
	}
	return nil
}

// Call invokes a helper, scoped to the owning partial first and the view
// second, and appends its output.
func (s *Section) Call(helper string, args ...any) error {
	out, err := s.owner.callHelper(helper, args...)
	if err != nil {
		return err
	}
	s.units = append(s.units, literal(out))
	return nil
}

// Resolve concatenates the resolved text of every unit in append order. A
// section with no units falls back to the partial's local of the same name.
// Each deferred and renderable unit is evaluated exactly once per call.
func (s *Section) Resolve(ctx context.Context) (string, error) {
	if len(s.units) == 0 {
		local, _ := s.owner.Local(s.name)
		return local, nil
	}

	ctx = s.owner.view.Bind(ctx)
	units := s.units

	var sb strings.Builder
	for _, u := range units {
		text, err := u.resolve(ctx)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// Value resolves the section with the ambient rendering context.
func (s *Section) Value() (string, error) {
	return s.Resolve(s.owner.context())
}

// String resolves the section with the ambient rendering context. A failed
// resolution is logged and reported as the empty string.
func (s *Section) String() string {
	out, err := s.Value()
	if err != nil {
		s.owner.logger.Warn(s.owner.context(), err, "section resolution failed", "section", s.name)
		return ""
	}
	return out
}

// Render writes the resolved section to w.
func (s *Section) Render(ctx context.Context, w io.Writer) error {
	out, err := s.Resolve(ctx)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Present reports whether the section resolves to a non-empty string.
// Deferred and renderable units are evaluated. A failed resolution counts as
// present, so the error surfaces on the next read instead of being dropped.
func (s *Section) Present() bool {
	ctx := s.owner.context()
	out, err := s.Resolve(ctx)
	if err != nil {
		s.owner.logger.Debug(ctx, "presence check failed", "section", s.name, "error", err)
		return true
	}
	return out != ""
}

// Options returns a copy of the section's stored attributes.
func (s *Section) Options() tag.Attributes {
	return s.attrs.Clone()
}

// Required declares the section mandatory for the gated operations of the
// returned declaration.
func (s *Section) Required() *Declaration {
	return newDeclaration(s, PolicyRequired)
}

// Optional declares the section optional for the gated operations of the
// returned declaration.
func (s *Section) Optional() *Declaration {
	return newDeclaration(s, PolicyOptional)
}
