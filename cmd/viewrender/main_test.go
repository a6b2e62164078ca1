package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-viewengine/pkg/testsupport"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestRender_Stdout(t *testing.T) {
	dir := testsupport.WriteTemplates(t, map[string]string{
		"list.html": "{% for item in items %}{{ item }};{% endfor %}{{ title }}",
	})
	dataPath := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(dataPath, []byte(`{"title": "done", "items": [1, 2, 3]}`), 0o644))

	out, err := execute(t, "", "render", "list.html", "--dir", dir, "--data", dataPath)
	require.NoError(t, err)
	assert.Equal(t, "1;2;3;done", out)
}

func TestRender_YAMLFromStdinToFile(t *testing.T) {
	dir := testsupport.WriteTemplates(t, map[string]string{"page.html": "<h1>{{ title }}</h1>"})
	target := filepath.Join(t.TempDir(), "page.out.html")

	out, err := execute(t, "title: Hello\n", "render", "page.html", "--dir", dir, "--data", "-", "--html", "--output", target)
	require.NoError(t, err)
	assert.Empty(t, out)

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hello</h1>", string(written))
}

func TestRender_Errors(t *testing.T) {
	dir := testsupport.WriteTemplates(t, map[string]string{"page.html": "x"})

	_, err := execute(t, "", "render", "missing.html", "--dir", dir)
	assert.Error(t, err)

	_, err = execute(t, "", "render", "page.html", "--dir", filepath.Join(dir, "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing templates directory")

	_, err = execute(t, "", "render", "page.html", "--dir", dir, "--mode", "sometimes")
	assert.Error(t, err)

	_, err = execute(t, "not: [valid", "render", "page.html", "--dir", dir, "--data", "-")
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	dir := testsupport.WriteTemplates(t, map[string]string{
		"good.html":        "{{ a }}",
		"nested/also.html": "{% if a %}yes{% endif %}",
	})

	out, err := execute(t, "", "check", "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "ok   good.html\nok   nested/also.html\n", out)

	testsupport.WriteTemplate(t, dir, "bad.html", "{% if %}")
	out, err = execute(t, "", "check", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL bad.html")
	assert.Contains(t, err.Error(), "1 of 3")
}
