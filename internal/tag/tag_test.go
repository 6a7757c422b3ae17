package tag

import (
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributesString(t *testing.T) {
	testCases := []struct {
		name     string
		attrs    Attributes
		expected string
	}{
		{"empty", Attributes{}, ""},
		{"class string", Attributes{"class": "post-title"}, `class="post-title"`},
		{"sorted keys", Attributes{"id": "x", "class": "a"}, `class="a" id="x"`},
		{"boolean true", Attributes{"disabled": true}, "disabled"},
		{"boolean false", Attributes{"disabled": false, "id": "x"}, `id="x"`},
		{"nil value", Attributes{"title": nil}, ""},
		{"escaped value", Attributes{"title": `a "quote" & <tag>`}, `title="a &#34;quote&#34; &amp; &lt;tag&gt;"`},
		{"data expansion", Attributes{"data": map[string]any{"controller": "menu", "menu_open": true}}, `data-controller="menu" data-menu-open`},
		{"class list", Attributes{"class": []string{"a", "b a"}}, `class="a b"`},
		{"empty class", Attributes{"class": ""}, `class=""`},
		{"number", Attributes{"tabindex": 3}, `tabindex="3"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.attrs.String())
		})
	}
}

func TestClasses(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Classes("a  b a"))
	assert.Equal(t, []string{"b"}, Classes(map[string]bool{"a": false, "b": true}))
	assert.Equal(t, []string{"on"}, Classes([]any{templ.KV("on", true), templ.KV("off", false)}))
	assert.Equal(t, []string{"x", "y"}, Classes([]any{"x", map[string]bool{"y": true}}))
	assert.Empty(t, Classes(nil))
}

func TestAttributesMerge(t *testing.T) {
	t.Run("conditional class map replaces stored tokens", func(t *testing.T) {
		stored := Attributes{"class": "a"}
		merged := stored.Merge(Attributes{"class": map[string]bool{"a": false, "b": true}})
		assert.Equal(t, []string{"b"}, Classes(merged.Get("class")))
		assert.Equal(t, "a", stored.Get("class"), "merge must not mutate the stored bag")
	})

	t.Run("all tokens false renders empty class", func(t *testing.T) {
		merged := Attributes{"class": "post-title"}.Merge(Attributes{"class": map[string]bool{"text-m4": false}})
		assert.Equal(t, `class=""`, merged.String())
	})

	t.Run("plain keys from call site win", func(t *testing.T) {
		merged := Attributes{"id": "stored", "role": "note"}.Merge(Attributes{"id": "call"})
		assert.Equal(t, "call", merged.Get("id"))
		assert.Equal(t, "note", merged.Get("role"))
	})

	t.Run("stored class kept without call-site class", func(t *testing.T) {
		merged := Attributes{"class": "post-title"}.Merge(Attributes{"id": "x"})
		assert.Equal(t, `class="post-title" id="x"`, merged.String())
	})
}

func TestFromTempl(t *testing.T) {
	attrs := FromTempl(templ.Attributes{"hx-get": "/items"})
	assert.Equal(t, "/items", attrs.Get("hx-get"))
	assert.Nil(t, FromTempl(nil))
}

func TestBuilderBuild(t *testing.T) {
	b := New()

	html, err := b.Build("h2", "content", Attributes{"class": "post-title"})
	require.NoError(t, err)
	assert.Equal(t, `<h2 class="post-title">content</h2>`, html)

	html, err = b.Build("a", "Document", Attributes{"href": "document_url"})
	require.NoError(t, err)
	assert.Equal(t, `<a href="document_url">Document</a>`, html)

	html, err = b.Build("br", "ignored", nil)
	require.NoError(t, err)
	assert.Equal(t, `<br>`, html)

	html, err = b.Build("my-card", "<b>x</b>", nil)
	require.NoError(t, err)
	assert.Equal(t, `<my-card><b>x</b></my-card>`, html)
}

func TestBuilderRejectsUnknownElements(t *testing.T) {
	b := New()

	_, err := b.Build("", "x", nil)
	assert.Error(t, err)

	_, err = b.Build("notatag", "x", nil)
	assert.Error(t, err)

	_, err = b.Build("Bad-Name!", "x", nil)
	assert.Error(t, err)
}

func TestBuilderSanitizer(t *testing.T) {
	policy, err := Policy(PolicyStrict)
	require.NoError(t, err)

	b := New(WithSanitizer(policy))
	html, err := b.Build("p", `<script>alert(1)</script>hello`, nil)
	require.NoError(t, err)
	assert.Equal(t, `<p>hello</p>`, html)
}

func TestPolicy(t *testing.T) {
	for _, name := range []string{"", "none", "NONE"} {
		policy, err := Policy(name)
		require.NoError(t, err)
		assert.Nil(t, policy)
	}

	policy, err := Policy("ugc")
	require.NoError(t, err)
	assert.NotNil(t, policy)

	_, err = Policy("paranoid")
	assert.Error(t, err)
}
