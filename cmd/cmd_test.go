package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	*renderFlags = RenderFlags{}
	versionFormat, versionShort, versionDetailed = "text", false, false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func templateDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "card.html"),
		`<div>{{ partial.Required("title").H2() }}{% if partial.Present("body") %}<p>{{ partial.Get("body") }}</p>{% endif %}</div>`)
	writeFile(t, filepath.Join(dir, "author.html"), `by {{ partial.Get("author") }}`)
	return dir
}

func TestRenderCommand(t *testing.T) {
	dir := templateDir(t)

	out, err := execute(t, "render", "card", "-t", dir, "--set", "title=Hello", "--set", "body=<em>hi</em>")
	require.NoError(t, err)
	assert.Equal(t, "<div><h2>Hello</h2><p><em>hi</em></p></div>", out)
}

func TestRenderCommandLocals(t *testing.T) {
	dir := templateDir(t)
	localsFile := filepath.Join(t.TempDir(), "locals.yaml")
	writeFile(t, localsFile, "author: Grace\n")

	out, err := execute(t, "render", "author", "-t", dir, "-f", localsFile)
	require.NoError(t, err)
	assert.Equal(t, "by Grace", out)

	out, err = execute(t, "render", "author", "-t", dir, "-f", localsFile, "--local", "author=Ada")
	require.NoError(t, err)
	assert.Equal(t, "by Ada", out)
}

func TestRenderCommandOutputFile(t *testing.T) {
	dir := templateDir(t)
	output := filepath.Join(t.TempDir(), "card.out.html")

	out, err := execute(t, "render", "card", "-t", dir, "-s", "title=Saved", "-o", output)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "<div><h2>Saved</h2></div>", string(data))
}

func TestRenderCommandErrors(t *testing.T) {
	dir := templateDir(t)

	_, err := execute(t, "render", "card", "-t", dir)
	assert.ErrorContains(t, err, "ERR_REQUIRED_CONTENT")

	_, err = execute(t, "render", "missing", "-t", dir)
	assert.ErrorContains(t, err, "ERR_TEMPLATE_NOT_FOUND")

	_, err = execute(t, "render", "card", "-t", dir, "--set", "novalue")
	assert.ErrorContains(t, err, "expected name=value")

	_, err = execute(t, "render", "card", "-t", dir, "-o", t.TempDir())
	assert.ErrorContains(t, err, "directory")
}

func TestParseSets(t *testing.T) {
	body := filepath.Join(t.TempDir(), "body.md")
	writeFile(t, body, "from file")

	flags := &RenderFlags{Sets: []string{"title=a=b", "body=@" + body}}
	sets, err := flags.ParseSets()
	require.NoError(t, err)
	assert.Equal(t, []SlotAssignment{
		{Slot: "title", Content: "a=b"},
		{Slot: "body", Content: "from file"},
	}, sets)

	flags = &RenderFlags{Sets: []string{"body=@" + filepath.Join(t.TempDir(), "nope")}}
	_, err = flags.ParseSets()
	assert.Error(t, err)
}

func TestParseLocals(t *testing.T) {
	file := filepath.Join(t.TempDir(), "locals.yaml")
	writeFile(t, file, "title: From file\ncount: 2\n")

	flags := &RenderFlags{LocalsFile: file, Locals: []string{"title=From flag"}}
	locals, err := flags.ParseLocals()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "From flag", "count": 2}, locals)

	writeFile(t, file, "- not\n- a map\n")
	_, err = flags.ParseLocals()
	assert.ErrorContains(t, err, "invalid YAML")
}

func TestValidateFlags(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		name    string
		flags   RenderFlags
		wantErr bool
	}{
		{"no output", RenderFlags{}, false},
		{"file output", RenderFlags{Output: filepath.Join(dir, "out.html")}, false},
		{"directory output", RenderFlags{Output: dir}, true},
		{"overwrites locals", RenderFlags{Output: "l.yaml", LocalsFile: "l.yaml"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.flags.ValidateFlags()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAssignment(t *testing.T) {
	assert.NoError(t, ValidateAssignment("a=b"))
	assert.NoError(t, ValidateAssignment("a="))
	assert.Error(t, ValidateAssignment("=b"))
	assert.Error(t, ValidateAssignment("ab"))
}

func TestValidateFileExists(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	writeFile(t, file, "")

	assert.NoError(t, ValidateFileExists(""))
	assert.NoError(t, ValidateFileExists(file))
	assert.Error(t, ValidateFileExists(file+".missing"))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "partials ")

	out, err = execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "version")
	assert.Contains(t, decoded, "is_release")

	_, err = execute(t, "version", "--format", "xml")
	assert.Error(t, err)
}
