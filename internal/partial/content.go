package partial

import (
	"bytes"
	"context"

	"github.com/a-h/templ"
)

// ContentFunc produces section content when the section is resolved.
type ContentFunc func(ctx context.Context) (string, error)

// ChunkFunc is a parameterised block held back until Section.Yield supplies
// its arguments.
type ChunkFunc func(ctx context.Context, args ...any) (string, error)

type unitKind uint8

const (
	unitLiteral unitKind = iota
	unitDeferred
	unitRenderable
	unitForwarded
)

func (k unitKind) String() string {
	switch k {
	case unitLiteral:
		return "literal"
	case unitDeferred:
		return "deferred"
	case unitRenderable:
		return "renderable"
	case unitForwarded:
		return "forwarded"
	default:
		return "unknown"
	}
}

// unit is one appended piece of content. Units are never modified after
// they are appended.
type unit struct {
	kind      unitKind
	text      string
	fn        ContentFunc
	component templ.Component
	// err is set on a forwarded unit whose source failed to resolve.
	err error
}

func literal(text string) unit {
	return unit{kind: unitLiteral, text: text}
}

func deferred(fn ContentFunc) unit {
	return unit{kind: unitDeferred, fn: fn}
}

func renderable(c templ.Component) unit {
	return unit{kind: unitRenderable, component: c}
}

func forwarded(text string, err error) unit {
	return unit{kind: unitForwarded, text: text, err: err}
}

func (u unit) resolve(ctx context.Context) (string, error) {
	switch u.kind {
	case unitDeferred:
		return u.fn(ctx)
	case unitRenderable:
		var buf bytes.Buffer
		if err := u.component.Render(ctx, &buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	case unitForwarded:
		if u.err != nil {
			return "", u.err
		}
		return u.text, nil
	default:
		return u.text, nil
	}
}
