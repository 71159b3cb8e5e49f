package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadFileJSONShapes(t *testing.T) {
	dir := t.TempDir()

	strs := filepath.Join(dir, "strings.json")
	writeFile(t, strs, `["first article text", "second article text"]`)
	articles, err := LoadFile(strs)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "second article text", articles[1].Text)
	assert.Equal(t, strs+"#1", articles[1].Source)

	objs := filepath.Join(dir, "objects.json")
	writeFile(t, objs, `[
		{"title": "Budget passed", "description": "The council passed the budget."},
		{"title": "Storm", "content": "A storm hit the coast.", "description": "short"},
		{"text": "Explicit text wins.", "content": "ignored"}
	]`)
	articles, err = LoadFile(objs)
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, "Budget passed", articles[0].Title)
	assert.Equal(t, "The council passed the budget.", articles[0].Text)
	assert.Equal(t, "A storm hit the coast.", articles[1].Text)
	assert.Equal(t, "Explicit text wins.", articles[2].Text)

	single := filepath.Join(dir, "single.json")
	writeFile(t, single, `{"title": "One", "text": "Only one article here."}`)
	articles, err = LoadFile(single)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "One", articles[0].Title)
}

func TestLoadFileInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	writeFile(t, path, `[{"text": `)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode JSON")
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "  A plain text article.\n")
	writeFile(t, filepath.Join(dir, "a.json"), `["json article"]`)
	writeFile(t, filepath.Join(dir, "nested", "c.txt"), "Nested article.")
	writeFile(t, filepath.Join(dir, "empty.txt"), "   ")
	writeFile(t, filepath.Join(dir, "notes.md"), "ignored")

	articles, err := Load(dir)
	require.NoError(t, err)

	texts := make([]string, 0, len(articles))
	for _, a := range articles {
		texts = append(texts, a.Text)
	}
	assert.Equal(t, []string{"json article", "A plain text article.", "Nested article."}, texts)
}

func TestLoadMissingPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
