// Package tag builds HTML elements from a tag name, a body and an attribute
// bag.
//
// The builder owns attribute serialisation and escaping: attribute values
// are escaped with templ's escaper, bodies are treated as markup and are only
// rewritten when a bluemonday sanitisation policy is configured. Element
// names are validated against the HTML atom table, with hyphenated custom
// element names accepted as well, and void elements never receive a body.
package tag

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/atom"
)

// Sanitisation policy names accepted by Policy.
const (
	PolicyNone   = "none"
	PolicyStrict = "strict"
	PolicyUGC    = "ugc"
)

// Builder renders HTML elements.
type Builder struct {
	sanitizer *bluemonday.Policy
}

// Option configures a Builder.
type Option func(*Builder)

// WithSanitizer runs every body through policy before it is wrapped.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(b *Builder) {
		b.sanitizer = policy
	}
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// Policy resolves a named sanitisation policy. The empty name and "none"
// yield a nil policy.
func Policy(name string) (*bluemonday.Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyNone:
		return nil, nil
	case PolicyStrict:
		return bluemonday.StrictPolicy(), nil
	case PolicyUGC:
		return bluemonday.UGCPolicy(), nil
	default:
		return nil, fmt.Errorf("tag: unknown sanitize policy %q", name)
	}
}

// Build renders <name attrs>body</name>.
func (b *Builder) Build(name, body string, attrs Attributes) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	a, err := lookup(name)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(name)
	if rendered := attrs.String(); rendered != "" {
		sb.WriteByte(' ')
		sb.WriteString(rendered)
	}
	sb.WriteByte('>')

	if isVoid(a) {
		return sb.String(), nil
	}

	if b != nil && b.sanitizer != nil {
		body = b.sanitizer.Sanitize(body)
	}
	sb.WriteString(body)
	sb.WriteString("</")
	sb.WriteString(name)
	sb.WriteByte('>')
	return sb.String(), nil
}

func lookup(name string) (atom.Atom, error) {
	if name == "" {
		return 0, fmt.Errorf("tag: element name is required")
	}
	if a := atom.Lookup([]byte(name)); a != 0 {
		return a, nil
	}
	if validCustomElement(name) {
		return 0, nil
	}
	return 0, fmt.Errorf("tag: unknown element %q", name)
}

// validCustomElement accepts names like "my-card": a leading letter, at least
// one hyphen, and only lowercase letters, digits, '-', '_' and '.'.
func validCustomElement(name string) bool {
	if !strings.Contains(name, "-") || name[0] < 'a' || name[0] > 'z' {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Source, atom.Track, atom.Wbr:
		return true
	default:
		return false
	}
}
