package view

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/partials/internal/tag"
)

// Names of the helpers every view starts with.
const (
	HelperLinkTo     = "link_to"
	HelperContentTag = "content_tag"
	HelperMarkdown   = "markdown"
	HelperTitleize   = "titleize"
)

var (
	markdownOnce sync.Once
	markdownConv goldmark.Markdown
)

// markdownRenderer is built once; goldmark.Markdown is safe for concurrent
// Convert calls.
func markdownRenderer() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownConv = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownConv
}

func (v *Context) installDefaults() {
	v.helpers[HelperLinkTo] = v.linkToHelper
	v.helpers[HelperContentTag] = v.contentTagHelper
	v.helpers[HelperMarkdown] = markdownHelper
	v.helpers[HelperTitleize] = titleizeHelper
}

// link_to(text, href[, attrs])
func (v *Context) linkToHelper(_ context.Context, args ...any) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("view: link_to expects text and href, got %d arguments", len(args))
	}
	return v.LinkTo(Stringify(args[0]), Stringify(args[1]), AttributesArg(args[2:]))
}

// content_tag(name, body[, attrs])
func (v *Context) contentTagHelper(_ context.Context, args ...any) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("view: content_tag expects a tag name")
	}
	body := ""
	if len(args) > 1 {
		body = Stringify(args[1])
	}
	var rest []any
	if len(args) > 2 {
		rest = args[2:]
	}
	return v.Tag(Stringify(args[0]), body, AttributesArg(rest))
}

func markdownHelper(_ context.Context, args ...any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("view: markdown expects one argument, got %d", len(args))
	}
	var buf bytes.Buffer
	if err := markdownRenderer().Convert([]byte(Stringify(args[0])), &buf); err != nil {
		return "", fmt.Errorf("view: markdown: %w", err)
	}
	return buf.String(), nil
}

func titleizeHelper(_ context.Context, args ...any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("view: titleize expects one argument, got %d", len(args))
	}
	return cases.Title(language.English).String(Stringify(args[0])), nil
}

// Stringify renders a helper argument as text.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case templ.SafeURL:
		return string(s)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

// AttributesArg merges every attribute-like value in args into one bag.
func AttributesArg(args []any) tag.Attributes {
	var out tag.Attributes
	for _, arg := range args {
		attrs, ok := AsAttributes(arg)
		if !ok {
			continue
		}
		out = out.Merge(attrs)
	}
	return out
}

// AsAttributes reports whether v is an attribute bag and converts it.
func AsAttributes(v any) (tag.Attributes, bool) {
	switch a := v.(type) {
	case tag.Attributes:
		return a, true
	case templ.Attributes:
		return tag.FromTempl(a), true
	case map[string]any:
		return tag.Attributes(a), true
	default:
		return nil, false
	}
}
