package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"truthlens/internal/config"
	"truthlens/internal/services/classifier"
)

const sampleNews = "Scientists at the university published a peer-reviewed study on coastal erosion this week."

func fakeOllama(t *testing.T, reply string, healthy bool) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response":          reply,
			"model":             "llama3:8b",
			"prompt_eval_count": 120,
			"eval_count":        30,
		})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("OLLAMA_BASE_URL", server.URL)
	t.Setenv("REQUEST_TIMEOUT", "5")
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestClassifyJSON(t *testing.T) {
	fakeOllama(t, "CLASSIFICATION: REAL\nCONFIDENCE: 91\nREASONING: Cites a published study.", true)

	out, _, err := runCLI(t, "", "classify", "--json", sampleNews)
	require.NoError(t, err)

	var result classifier.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, classifier.LabelReal, result.Classification)
	assert.Equal(t, 91, result.Confidence)
}

func TestClassifyFromStdinTable(t *testing.T) {
	fakeOllama(t, "CLASSIFICATION: FAKE\nCONFIDENCE: 77\nREASONING: Sensational framing.", true)

	out, _, err := runCLI(t, sampleNews+"\n", "classify", "--table", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "FAKE")
	assert.Contains(t, out, "77%")
	assert.Contains(t, out, "Sensational framing.")
	assert.Contains(t, out, "120 prompt / 30 generated")
}

func TestClassifyDefaultsToJSONWhenPiped(t *testing.T) {
	fakeOllama(t, "CLASSIFICATION: REAL\nCONFIDENCE: 60\nREASONING: Plausible.", true)

	out, _, err := runCLI(t, sampleNews, "classify")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
}

func TestClassifyValidationFailure(t *testing.T) {
	fakeOllama(t, "unused", true)

	out, _, err := runCLI(t, "", "classify", "--json", "too short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Text too short")

	var result classifier.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Success)
}

func TestHealth(t *testing.T) {
	fakeOllama(t, "", true)
	out, _, err := runCLI(t, "", "health", "--json")
	require.NoError(t, err)

	var resp classifier.HealthResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Healthy)
	assert.Equal(t, "ollama", resp.Provider)
	assert.Equal(t, "llama3:8b", resp.Model)
}

func TestHealthUnreachable(t *testing.T) {
	fakeOllama(t, "", false)
	out, _, err := runCLI(t, "", "health")
	require.Error(t, err)
	assert.Contains(t, out, "unreachable")
}

func TestConfigRedactsSecrets(t *testing.T) {
	fakeOllama(t, "", true)
	t.Setenv("OPENAI_API_KEY", "sk-secret")
	t.Setenv("OLLAMA_MODEL", "gemma:2b")

	out, _, err := runCLI(t, "", "config")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-secret")

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "gemma:2b", cfg.LLM.Model)
	assert.Equal(t, redacted, cfg.LLM.OpenAIAPIKey)
}

func TestBatchFromDirectory(t *testing.T) {
	fakeOllama(t, "CLASSIFICATION: REAL\nCONFIDENCE: 64\nREASONING: Neutral reporting.", true)
	t.Setenv("BATCH_MAX_ITEMS", "2")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"),
		[]byte(`[{"title": "Study", "text": "`+sampleNews+`"}, {"text": "`+sampleNews+`"}, {"description": "`+sampleNews+`"}]`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("tiny"), 0o600))

	out, _, err := runCLI(t, "", "batch", "--json", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 4 articles")

	var items []batchItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 4)
	assert.Equal(t, "Study", items[0].Title)
	assert.Equal(t, 64, items[2].Result.Confidence)
	assert.False(t, items[3].Result.Success)
}

func TestBatchTable(t *testing.T) {
	out := renderBatch([]batchItem{
		{Source: "a.json#0", Title: "Study", Result: classifier.Result{Success: true, Classification: classifier.LabelFake, Confidence: 80, Reasoning: "Unsourced."}},
		{Source: "b.txt", Result: classifier.Result{Error: "Text too short. Minimum 10 characters required"}},
	})
	assert.Contains(t, out, "Study")
	assert.Contains(t, out, "FAKE")
	assert.Contains(t, out, "b.txt")
	assert.Contains(t, out, "ERROR")
}
