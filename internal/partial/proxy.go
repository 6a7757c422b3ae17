package partial

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/partials/internal/tag"
	"github.com/conneroisu/partials/internal/view"
)

// Tag builds a name element whose body is the section's resolved value.
//
// args may mix extra content strings, appended to the body without a
// separator, attribute bags, merged over the section's stored options, and
// content closures or templ components, rendered after the extra content.
func (s *Section) Tag(name string, args ...any) (string, error) {
	body, err := s.Value()
	if err != nil {
		return "", err
	}
	return s.tag(body, name, args...)
}

// tag builds the element around an already resolved body.
func (s *Section) tag(body, name string, args ...any) (string, error) {
	extra, attrs, err := tagArgs(s.owner.context(), args)
	if err != nil {
		return "", err
	}

	return s.owner.view.Tag(name, body+extra, s.attrs.Merge(attrs))
}

func tagArgs(ctx context.Context, args []any) (string, tag.Attributes, error) {
	var (
		sb    strings.Builder
		attrs tag.Attributes
	)
	for _, arg := range args {
		if a, ok := view.AsAttributes(arg); ok {
			attrs = attrs.Merge(a)
			continue
		}

		switch v := arg.(type) {
		case nil:
		case string:
			sb.WriteString(v)
		case template.HTML:
			sb.WriteString(string(v))
		case ContentFunc:
			if v == nil {
				continue
			}
			out, err := v(ctx)
			if err != nil {
				return "", nil, err
			}
			sb.WriteString(out)
		case func(context.Context) (string, error):
			if v == nil {
				continue
			}
			out, err := v(ctx)
			if err != nil {
				return "", nil, err
			}
			sb.WriteString(out)
		case func() string:
			if v != nil {
				sb.WriteString(v())
			}
		case templ.Component:
			var buf bytes.Buffer
			if err := v.Render(ctx, &buf); err != nil {
				return "", nil, err
			}
			sb.Write(buf.Bytes())
		case fmt.Stringer:
			sb.WriteString(v.String())
		default:
			sb.WriteString(fmt.Sprint(v))
		}
	}
	return sb.String(), attrs, nil
}

// tagShortcuts exposes common elements as methods on top of a generic
// tag-building function.
type tagShortcuts struct {
	build func(name string, args ...any) (string, error)
}

func (t tagShortcuts) A(args ...any) (string, error)    { return t.build("a", args...) }
func (t tagShortcuts) Div(args ...any) (string, error)  { return t.build("div", args...) }
func (t tagShortcuts) P(args ...any) (string, error)    { return t.build("p", args...) }
func (t tagShortcuts) Span(args ...any) (string, error) { return t.build("span", args...) }
func (t tagShortcuts) Li(args ...any) (string, error)   { return t.build("li", args...) }
func (t tagShortcuts) H1(args ...any) (string, error)   { return t.build("h1", args...) }
func (t tagShortcuts) H2(args ...any) (string, error)   { return t.build("h2", args...) }
func (t tagShortcuts) H3(args ...any) (string, error)   { return t.build("h3", args...) }
