// Package view provides the rendering context shared by every fragment of a
// single render: the request context, the tag builder, the view-level helper
// functions and the logger.
//
// A *Context travels inside context.Context, so templ components rendered as
// section content can reach the same helpers through FromContext.
package view

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/conneroisu/partials/internal/logging"
	"github.com/conneroisu/partials/internal/tag"
)

// Helper is a view helper callable by name from templates, sections and
// components.
type Helper func(ctx context.Context, args ...any) (string, error)

// TagBuilder renders an element from a tag name, body and attributes.
type TagBuilder interface {
	Build(name, body string, attrs tag.Attributes) (string, error)
}

type contextKey struct{}

// Context is the ambient rendering state of one render invocation.
type Context struct {
	ctx     context.Context
	builder TagBuilder
	logger  logging.Logger

	mu      sync.RWMutex
	helpers map[string]Helper
}

// Option configures a Context.
type Option func(*Context)

// WithTagBuilder replaces the default tag builder.
func WithTagBuilder(b TagBuilder) Option {
	return func(v *Context) {
		if b != nil {
			v.builder = b
		}
	}
}

// WithLogger sets the logger used by the view and the fragments bound to it.
func WithLogger(l logging.Logger) Option {
	return func(v *Context) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithHelper registers an additional view helper.
func WithHelper(name string, h Helper) Option {
	return func(v *Context) {
		if name != "" && h != nil {
			v.helpers[name] = h
		}
	}
}

// New creates a rendering context for ctx with the default helpers
// (link_to, content_tag, markdown, titleize) installed.
func New(ctx context.Context, opts ...Option) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	v := &Context{
		builder: tag.New(),
		logger:  logging.NewNopLogger(),
		helpers: make(map[string]Helper),
	}
	v.installDefaults()
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	v.ctx = context.WithValue(ctx, contextKey{}, v)
	return v
}

// FromContext returns the view carried by ctx.
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	v, ok := ctx.Value(contextKey{}).(*Context)
	return v, ok
}

// Context returns the context.Context carrying this view.
func (v *Context) Context() context.Context {
	return v.ctx
}

// Bind returns ctx carrying v, unless ctx already carries a view.
func (v *Context) Bind(ctx context.Context) context.Context {
	if ctx == nil {
		return v.ctx
	}
	if _, ok := FromContext(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, v)
}

// Logger returns the view's logger.
func (v *Context) Logger() logging.Logger {
	return v.logger
}

// Tag renders an element through the configured tag builder.
func (v *Context) Tag(name, body string, attrs tag.Attributes) (string, error) {
	return v.builder.Build(name, body, attrs)
}

// LinkTo renders an anchor with the given text and href.
func (v *Context) LinkTo(text, href string, attrs tag.Attributes) (string, error) {
	return v.Tag("a", text, tag.Attributes{"href": href}.Merge(attrs))
}

// RespondsTo reports whether a view helper is registered under name.
func (v *Context) RespondsTo(name string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.helpers[name]
	return ok
}

// Helpers returns the registered helper names in sorted order.
func (v *Context) Helpers() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.helpers))
	for name := range v.helpers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Register adds or replaces a view helper.
func (v *Context) Register(name string, h Helper) error {
	if name == "" {
		return fmt.Errorf("view: helper name is required")
	}
	if h == nil {
		return fmt.Errorf("view: helper %q is nil", name)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.helpers[name] = h
	return nil
}

// Call invokes the view helper registered under name.
func (v *Context) Call(name string, args ...any) (string, error) {
	v.mu.RLock()
	h, ok := v.helpers[name]
	v.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("view: undefined helper %q", name)
	}
	return h(v.ctx, args...)
}
