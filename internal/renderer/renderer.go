// Package renderer executes pongo2 templates against a partial.
//
// Every render builds a fresh view and partial. The caller fills the partial
// before the template runs, much like a block filling a layout, and the
// template reads the sections back through the partial binding:
//
//	<article>
//	  {{ partial.Section("title").H1("class", "headline") }}
//	  {% if partial.Present("subtitle") %}{{ partial.Get("subtitle") }}{% endif %}
//	  {{ partial.Required("body").Value() }}
//	</article>
//
// View helpers (link_to, markdown, titleize, content_tag and any registered
// through the view options) are available as template functions, together
// with render, which renders another template with content forwarded from
// the current partial.
package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"

	rerrors "github.com/conneroisu/partials/internal/errors"
	"github.com/conneroisu/partials/internal/logging"
	"github.com/conneroisu/partials/internal/partial"
	"github.com/conneroisu/partials/internal/view"
)

// PartialKey is the template variable the partial is bound to.
const PartialKey = "partial"

// RenderFunc is the template function that renders a nested template.
const RenderFunc = "render"

// maxDepth bounds nested render calls.
const maxDepth = 16

var reIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// FillFunc writes the caller's content into a partial before its template
// runs. It may be nil.
type FillFunc func(p *partial.Partial) error

// Option configures the renderer before construction.
type Option func(*options)

type options struct {
	dir          string
	files        fs.FS
	extension    string
	viewOptions  []view.Option
	logger       logging.Logger
	strictLocals bool
	globals      map[string]any
}

// WithDir loads templates from a directory on disk.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(o *options) {
		o.files = files
	}
}

// WithExtension sets the extension appended to template names that lack it.
func WithExtension(ext string) Option {
	return func(o *options) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		o.extension = trimmed
	}
}

// WithViewOptions configures the view built for every render.
func WithViewOptions(opts ...view.Option) Option {
	return func(o *options) {
		o.viewOptions = append(o.viewOptions, opts...)
	}
}

// WithLogger sets the renderer's logger. The view logs through it as well
// unless a view option overrides it.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStrictLocals makes renders fail on locals that are not valid template
// identifiers, instead of hiding them from the template.
func WithStrictLocals(strict bool) Option {
	return func(o *options) {
		o.strictLocals = strict
	}
}

// WithGlobals seeds values available to every template.
func WithGlobals(data map[string]any) Option {
	return func(o *options) {
		if o.globals == nil {
			o.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			o.globals[strings.TrimSpace(key)] = value
		}
	}
}

// Renderer renders templates from one template set.
type Renderer struct {
	mu sync.RWMutex

	set          *pongo2.TemplateSet
	templates    map[string]*pongo2.Template
	extension    string
	viewOptions  []view.Option
	logger       logging.Logger
	strictLocals bool
}

// New constructs a renderer. A template source is required unless only
// RenderString is used.
func New(opts ...Option) (*Renderer, error) {
	o := &options{
		extension: ".html",
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}

	var loaders []pongo2.TemplateLoader
	if o.dir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(o.dir)
		if err != nil {
			return nil, rerrors.WrapConfig(err, "create template loader")
		}
		loaders = append(loaders, loader)
	}
	if o.files != nil {
		loaders = append(loaders, pongo2.NewFSLoader(o.files))
	}
	if len(loaders) == 0 {
		loaders = append(loaders, pongo2.NewFSLoader(emptyFS{}))
	}

	set := pongo2.NewSet("partials", loaders...)
	for key, value := range o.globals {
		if !reIdentifier.MatchString(key) {
			return nil, rerrors.NewConfigError(rerrors.CodeConfigInvalid,
				fmt.Sprintf("global %q is not a valid identifier", key))
		}
		set.Globals[key] = value
	}

	logger := o.logger.WithComponent("renderer")
	viewOptions := append([]view.Option{view.WithLogger(o.logger)}, o.viewOptions...)

	return &Renderer{
		set:          set,
		templates:    make(map[string]*pongo2.Template),
		extension:    o.extension,
		viewOptions:  viewOptions,
		logger:       logger,
		strictLocals: o.strictLocals,
	}, nil
}

// Render executes the name template. locals are visible to the template as
// variables, and string-valued locals also back the partial's sections. fill
// runs against the partial before the template.
func (r *Renderer) Render(ctx context.Context, name string, locals map[string]any, fill FillFunc) (string, error) {
	tmpl, err := r.template(name)
	if err != nil {
		return "", err
	}
	return r.execute(ctx, &renderState{ctx: ctx}, name, tmpl, locals, fill)
}

// RenderString executes src as a template. See Render.
func (r *Renderer) RenderString(ctx context.Context, src string, locals map[string]any, fill FillFunc) (string, error) {
	tmpl, err := r.set.FromString(src)
	if err != nil {
		return "", rerrors.NewTemplateError(rerrors.CodeTemplateSyntax, "parse template", err).
			WithTemplate("<string>")
	}
	return r.execute(ctx, &renderState{ctx: ctx}, "<string>", tmpl, locals, fill)
}

// Reset drops compiled templates so the next render reloads them. Without
// names the whole cache is cleared.
func (r *Renderer) Reset(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(names) == 0 {
		r.templates = make(map[string]*pongo2.Template)
		return
	}
	for _, name := range names {
		delete(r.templates, r.filename(name))
	}
}

// Cached returns the file names of the compiled templates in sorted order.
func (r *Renderer) Cached() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.templates))
}

type renderState struct {
	ctx   context.Context
	depth int
	err   error
}

// fail records the first error raised inside template execution. pongo2
// flattens errors returned from template calls into strings, so the typed
// error is kept here for classification.
func (s *renderState) fail(err error) error {
	if err != nil && s.err == nil {
		s.err = err
	}
	return err
}

func (r *Renderer) execute(
	ctx context.Context,
	state *renderState,
	name string,
	tmpl *pongo2.Template,
	locals map[string]any,
	fill FillFunc,
) (string, error) {
	start := time.Now()

	data, err := r.templateLocals(locals)
	if err != nil {
		return "", err.WithTemplate(name)
	}

	v := view.New(ctx, r.viewOptions...)
	p := partial.New(v, stringLocals(locals))
	if fill != nil {
		if err := fill(p); err != nil {
			return "", rerrors.Classify(err, name)
		}
	}

	data[PartialKey] = &templatePartial{p: p, state: state}
	for _, helper := range v.Helpers() {
		data[helper] = helperFunc(v, state, helper)
	}
	data[RenderFunc] = r.renderFunc(state)

	var buf bytes.Buffer
	execErr := tmpl.ExecuteWriter(data, &buf)
	if state.err != nil {
		return "", rerrors.Classify(state.err, name)
	}
	if execErr != nil {
		return "", rerrors.Classify(execErr, name)
	}

	r.logger.Debug(ctx, "template rendered",
		"template", name,
		"depth", state.depth,
		"sections", len(p.Names()),
		"duration", time.Since(start))
	return buf.String(), nil
}

// renderFunc returns the render template function. It renders name with a
// fresh partial whose sections are copied from the from partial, keeping the
// names given or renamed with "from:to" pairs.
func (r *Renderer) renderFunc(state *renderState) func(name string, from any, sections ...any) (*pongo2.Value, error) {
	return func(name string, from any, sections ...any) (*pongo2.Value, error) {
		if state.depth+1 > maxDepth {
			return nil, state.fail(rerrors.NewTemplateError(rerrors.CodeTemplateExec,
				fmt.Sprintf("nested render depth exceeds %d", maxDepth), nil).WithTemplate(name))
		}

		src, ok := from.(*templatePartial)
		if !ok {
			return nil, state.fail(fmt.Errorf("render %q: source must be a partial, got %T", name, from))
		}

		renames := make(map[string]string, len(sections))
		for _, s := range sections {
			section := view.Stringify(s)
			source, target, found := strings.Cut(section, ":")
			if !found {
				target = source
			}
			renames[source] = target
		}

		tmpl, err := r.template(name)
		if err != nil {
			return nil, state.fail(err)
		}

		child := &renderState{ctx: state.ctx, depth: state.depth + 1}
		out, err := r.execute(state.ctx, child, name, tmpl, nil, func(p *partial.Partial) error {
			return p.ContentFromMap(src.p, renames)
		})
		if err != nil {
			return nil, state.fail(err)
		}
		return pongo2.AsSafeValue(out), nil
	}
}

func (r *Renderer) template(name string) (*pongo2.Template, error) {
	if err := validateTemplateName(name); err != nil {
		return nil, rerrors.NewTemplateError(rerrors.CodeTemplateNotFound, "invalid template name", err).
			WithTemplate(name)
	}
	filename := r.filename(name)

	r.mu.RLock()
	if tmpl, ok := r.templates[filename]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.templates[filename]; ok {
		return tmpl, nil
	}

	tmpl, err := r.set.FromFile(filename)
	if err != nil {
		return nil, loadError(err, name)
	}

	r.templates[filename] = tmpl
	r.logger.Debug(context.Background(), "template compiled", "template", filename)
	return tmpl, nil
}

func (r *Renderer) filename(name string) string {
	if strings.HasSuffix(name, r.extension) {
		return name
	}
	return name + r.extension
}

// templateLocals copies locals into a pongo2 context, leaving out keys the
// template could not refer to.
func (r *Renderer) templateLocals(locals map[string]any) (pongo2.Context, *rerrors.RenderError) {
	data := make(pongo2.Context, len(locals)+4)
	for key, value := range locals {
		if reIdentifier.MatchString(key) && key != PartialKey && key != RenderFunc {
			data[key] = value
			continue
		}
		if r.strictLocals {
			return nil, rerrors.NewConfigError(rerrors.CodeConfigInvalid,
				fmt.Sprintf("local %q is not a valid template identifier", key))
		}
		r.logger.Debug(context.Background(), "local hidden from template", "local", key)
	}
	return data, nil
}

func stringLocals(locals map[string]any) map[string]string {
	if len(locals) == 0 {
		return nil
	}
	out := make(map[string]string, len(locals))
	for key, value := range locals {
		out[key] = view.Stringify(value)
	}
	return out
}

// loadError turns a pongo2 load failure into a RenderError. pongo2 errors do
// not unwrap, so the original error is inspected directly.
func loadError(err error, name string) error {
	cause := err
	var pe *pongo2.Error
	if errors.As(err, &pe) && pe.OrigError != nil {
		cause = pe.OrigError
	}

	if errors.Is(cause, fs.ErrNotExist) || (pe != nil && pe.Sender == "fromfile") {
		return rerrors.NewTemplateError(rerrors.CodeTemplateNotFound, "template not found", err).
			WithTemplate(name)
	}
	return rerrors.NewTemplateError(rerrors.CodeTemplateSyntax, "parse template", err).
		WithTemplate(name)
}

// validateTemplateName rejects names that would escape the template root.
func validateTemplateName(name string) error {
	cleanName := filepath.ToSlash(filepath.Clean(name))

	if name == "" || cleanName == "." {
		return fmt.Errorf("empty or invalid template name: %q", name)
	}

	// Reject names containing path traversal patterns
	if strings.HasPrefix(cleanName, "..") || strings.Contains(cleanName, "/../") {
		return fmt.Errorf("path traversal attempt detected: %s", name)
	}

	// Reject absolute paths
	if filepath.IsAbs(cleanName) || strings.HasPrefix(cleanName, "/") {
		return fmt.Errorf("absolute path not allowed: %s", name)
	}

	return nil
}

// emptyFS backs a renderer that only renders strings.
type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
