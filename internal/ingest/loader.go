package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Article is one news item read from disk. Text is what gets classified.
type Article struct {
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
}

// articleFile accepts the article shapes found in exported news datasets.
type articleFile struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Text        string `json:"text"`
}

func (a articleFile) body() string {
	for _, s := range []string{a.Text, a.Content, a.Description} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Load reads articles from a file or, for a directory, from every .json and
// .txt file below it in lexical order. A .txt file is one article. A .json
// file holds an array of strings or of objects with text, content or
// description fields; a single object is accepted too.
func Load(path string) ([]Article, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if !info.IsDir() {
		return LoadFile(path)
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".json", ".txt":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", path, err)
	}
	sort.Strings(files)

	var articles []Article
	for _, file := range files {
		loaded, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		articles = append(articles, loaded...)
	}
	log.Debug().Str("path", path).Int("files", len(files)).Int("articles", len(articles)).Msg("Loaded articles")
	return articles, nil
}

// LoadFile reads articles from a single .json or .txt file.
func LoadFile(path string) ([]Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	if !strings.EqualFold(filepath.Ext(path), ".json") {
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, nil
		}
		return []Article{{Source: path, Text: text}}, nil
	}

	articles, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JSON from %s: %w", path, err)
	}
	for i := range articles {
		articles[i].Source = fmt.Sprintf("%s#%d", path, i)
	}
	return articles, nil
}

func decodeJSON(data []byte) ([]Article, error) {
	var texts []string
	if err := json.Unmarshal(data, &texts); err == nil {
		articles := make([]Article, 0, len(texts))
		for _, text := range texts {
			articles = append(articles, Article{Text: text})
		}
		return articles, nil
	}

	var items []articleFile
	if err := json.Unmarshal(data, &items); err != nil {
		var single articleFile
		if errSingle := json.Unmarshal(data, &single); errSingle != nil {
			return nil, errors.Join(err, errSingle)
		}
		items = []articleFile{single}
	}

	articles := make([]Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, Article{Title: item.Title, Text: item.body()})
	}
	return articles, nil
}
