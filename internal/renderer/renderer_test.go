package renderer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/conneroisu/partials/internal/errors"
	"github.com/conneroisu/partials/internal/partial"
	"github.com/conneroisu/partials/internal/tag"
	"github.com/conneroisu/partials/internal/view"
)

func templates() fstest.MapFS {
	return fstest.MapFS{
		"card.html": {Data: []byte(
			`<div class="card">{{ partial.Section("title").H2("class", "card-title") }}` +
				`{% if partial.Present("body") %}<p>{{ partial.Get("body") }}</p>{% endif %}</div>`)},
		"page.html": {Data: []byte(
			`{{ partial.Required("title").H1() }}{{ render("card", partial, "title", "summary:body") }}`)},
		"strict.html": {Data: []byte(`<h1>{{ partial.Required("title").Value() }}</h1>`)},
		"locals.html": {Data: []byte(`{{ partial.Get("title") }}|{{ title }}|{{ count }}`)},
		"helpers.html": {Data: []byte(
			`{{ titleize("hello world") }} {{ link_to("Home", "/") }} {{ markdown("*hi*") }}`)},
		"call.html":      {Data: []byte(`{{ partial.Call("shout", "hey") }}{% if partial.Call("title?") %}!{% endif %}`)},
		"loop.html":      {Data: []byte(`{{ render("loop", partial) }}`)},
		"broken.html":    {Data: []byte(`{% if %}`)},
		"nested/a.html":  {Data: []byte(`nested {{ partial.Get("x") }}`)},
		"yield.html":     {Data: []byte(`<ul>{{ partial.Yield("items", "a") }}{{ partial.Yield("items", "b") }}{{ partial.Get("items") }}</ul>`)},
		"write.html":     {Data: []byte(`{{ partial.Write("title", "late") }}{{ partial.Get("title") }}`)},
		"escape.html":    {Data: []byte(`{{ raw }}{{ partial.Get("raw") }}`)},
		"attributes.html": {Data: []byte(`{{ partial.Tag("title", "span", "id", "t", "hidden", true) }}`)},
	}
}

func newRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(append([]Option{WithFS(templates())}, opts...)...)
	require.NoError(t, err)
	return r
}

func write(name string, content ...any) FillFunc {
	return func(p *partial.Partial) error {
		p.Write(name, content...)
		return nil
	}
}

func TestRenderFillsSections(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Render(context.Background(), "card", nil, func(p *partial.Partial) error {
		p.Write("title", "Hello")
		p.Write("body", "<em>world</em>")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, `<div class="card"><h2 class="card-title">Hello</h2><p><em>world</em></p></div>`, out)

	out, err = r.Render(context.Background(), "card.html", nil, write("title", "Only"))
	require.NoError(t, err)
	assert.Equal(t, `<div class="card"><h2 class="card-title">Only</h2></div>`, out)
}

func TestRenderRequiredContentMissing(t *testing.T) {
	r := newRenderer(t)

	_, err := r.Render(context.Background(), "strict", nil, nil)
	require.Error(t, err)
	assert.True(t, rerrors.IsContentError(err))
	assert.ErrorIs(t, err, partial.ErrRequiredContent)

	var re *rerrors.RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "title", re.Slot)
	assert.Equal(t, "strict", re.Template)
	assert.Equal(t, rerrors.CodeRequiredContent, re.Code)
}

func TestRenderLocals(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Render(context.Background(), "locals",
		map[string]any{"title": "From local", "count": 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, "From local|From local|3", out)

	out, err = r.Render(context.Background(), "locals",
		map[string]any{"title": "From local", "count": 3}, write("title", "Written"))
	require.NoError(t, err)
	assert.Equal(t, "Written|From local|3", out, "content replaces the local in the partial only")
}

func TestRenderStrictLocals(t *testing.T) {
	locals := map[string]any{"title": "x", "not-valid": "y", "count": 1}

	_, err := newRenderer(t).Render(context.Background(), "locals", locals, nil)
	assert.NoError(t, err, "invalid identifiers are hidden from the template")

	_, err = newRenderer(t, WithStrictLocals(true)).Render(context.Background(), "locals", locals, nil)
	require.Error(t, err)
	assert.True(t, rerrors.IsConfigError(err))
}

func TestRenderHelpers(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Render(context.Background(), "helpers", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello World <a href=\"/\">Home</a> <p><em>hi</em></p>\n", out)
}

func TestRenderRegisteredViewHelper(t *testing.T) {
	r, err := New(WithViewOptions(view.WithHelper("shout", func(_ context.Context, args ...any) (string, error) {
		return strings.ToUpper(view.Stringify(args[0])), nil
	})))
	require.NoError(t, err)

	out, err := r.RenderString(context.Background(), `{{ shout("hi") }}`, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "HI", out)
}

func TestRenderPartialHelpersAndPresence(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Render(context.Background(), "call", nil, func(p *partial.Partial) error {
		p.Write("title", "t")
		return p.Helper("shout", func(_ context.Context, args ...any) (string, error) {
			return strings.ToUpper(view.Stringify(args[0])), nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, "HEY!", out)
}

func TestRenderNestedForwardsContent(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Render(context.Background(), "page", nil, func(p *partial.Partial) error {
		p.Write("title", "Guide")
		p.Write("summary", "Short")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t,
		`<h1>Guide</h1><div class="card"><h2 class="card-title">Guide</h2><p>Short</p></div>`, out)
}

func TestRenderNestedErrors(t *testing.T) {
	r := newRenderer(t)

	_, err := r.Render(context.Background(), "loop", nil, nil)
	require.Error(t, err)
	assert.True(t, rerrors.IsTemplateError(err))
	assert.Contains(t, err.Error(), "nested render depth")

	_, err = r.RenderString(context.Background(), `{{ render("nope", partial) }}`, nil, nil)
	var re *rerrors.RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, rerrors.CodeTemplateNotFound, re.Code)
	assert.Equal(t, "nope", re.Template)
}

func TestRenderTemplateErrors(t *testing.T) {
	r := newRenderer(t)

	testCases := []struct {
		name string
		code string
	}{
		{"missing", rerrors.CodeTemplateNotFound},
		{"../outside", rerrors.CodeTemplateNotFound},
		{"broken", rerrors.CodeTemplateSyntax},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Render(context.Background(), tc.name, nil, nil)
			var re *rerrors.RenderError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tc.code, re.Code)
			assert.Equal(t, tc.name, re.Template)
		})
	}
}

func TestRenderFillError(t *testing.T) {
	boom := errors.New("boom")
	_, err := newRenderer(t).Render(context.Background(), "card", nil, func(*partial.Partial) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, rerrors.IsTemplateError(err))
}

func TestRenderDeferredErrorKeepsType(t *testing.T) {
	boom := errors.New("deferred failed")
	_, err := newRenderer(t).Render(context.Background(), "card", nil,
		write("title", partial.ContentFunc(func(context.Context) (string, error) { return "", boom })))
	assert.ErrorIs(t, err, boom)
}

func TestRenderSubdirectoryTemplates(t *testing.T) {
	out, err := newRenderer(t).Render(context.Background(), "nested/a", nil, write("x", "y"))
	require.NoError(t, err)
	assert.Equal(t, "nested y", out)
}

func TestRenderYieldAndTemplateWrites(t *testing.T) {
	r := newRenderer(t)

	out, err := r.Render(context.Background(), "yield", nil, func(p *partial.Partial) error {
		p.Section("items").Capture(func(_ context.Context, args ...any) (string, error) {
			return "<li>" + view.Stringify(args[0]) + "</li>", nil
		})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "<ul><li>a</li><li>b</li></ul>", out)

	out, err = r.Render(context.Background(), "write", nil, write("title", "early "))
	require.NoError(t, err)
	assert.Equal(t, "early late", out)
}

func TestRenderEscaping(t *testing.T) {
	out, err := newRenderer(t).Render(context.Background(), "escape",
		map[string]any{"raw": "<b>x</b>"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;x&lt;/b&gt;<b>x</b>", out, "locals escape, partial content does not")
}

func TestRenderTagAttributePairs(t *testing.T) {
	out, err := newRenderer(t).Render(context.Background(), "attributes", nil, write("title", "T"))
	require.NoError(t, err)
	assert.Equal(t, `<span hidden id="t">T</span>`, out)

	_, err = newRenderer(t).RenderString(context.Background(),
		`{{ partial.Section("title").H1("class") }}`, nil, nil)
	assert.Error(t, err)
}

func TestRenderSanitizedViewOptions(t *testing.T) {
	policy, err := tag.Policy(tag.PolicyStrict)
	require.NoError(t, err)

	r := newRenderer(t, WithViewOptions(view.WithTagBuilder(tag.New(tag.WithSanitizer(policy)))))
	out, err := r.Render(context.Background(), "card", nil, write("title", "<script>x</script>Safe"))
	require.NoError(t, err)
	assert.Equal(t, `<div class="card"><h2 class="card-title">Safe</h2></div>`, out)
}

func TestResetAndCached(t *testing.T) {
	r := newRenderer(t)
	ctx := context.Background()

	_, err := r.Render(ctx, "card", nil, nil)
	require.NoError(t, err)
	_, err = r.Render(ctx, "locals", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"card.html", "locals.html"}, r.Cached())

	r.Reset("card")
	assert.Equal(t, []string{"locals.html"}, r.Cached())

	r.Reset()
	assert.Empty(t, r.Cached())
}

func TestRenderStringWithoutTemplateSource(t *testing.T) {
	r, err := New(WithGlobals(map[string]any{"site": "Docs"}))
	require.NoError(t, err)

	out, err := r.RenderString(context.Background(), `{{ site }}: {{ partial.Get("t") }}`, nil, write("t", "Intro"))
	require.NoError(t, err)
	assert.Equal(t, "Docs: Intro", out)

	_, err = r.Render(context.Background(), "card", nil, nil)
	assert.True(t, rerrors.IsTemplateError(err))

	_, err = New(WithGlobals(map[string]any{"bad-key": 1}))
	assert.True(t, rerrors.IsConfigError(err))
}

func TestValidateTemplateName(t *testing.T) {
	testCases := []struct {
		name    string
		wantErr bool
	}{
		{"card", false},
		{"layouts/card.html", false},
		{"", true},
		{".", true},
		{"../etc/passwd", true},
		{"a/../../b", true},
		{"/etc/passwd", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateTemplateName(tc.name)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
