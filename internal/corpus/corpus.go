// Package corpus reads the labeled-sentence corpus and structured paper
// text produced by the upstream segmentation stage. Sentence keys are typed
// by provenance prefix (T title, C body content, I image caption, E
// equation, B table caption) plus a zero-padded sequence number, unique
// within one paper.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Corpus is the flattened key -> sentence text mapping for one paper.
type Corpus map[string]string

// Resolve returns the sentence text for a key.
func (c Corpus) Resolve(key string) (string, bool) {
	text, ok := c[key]
	return text, ok
}

// Has reports whether the key exists in the corpus.
func (c Corpus) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// ParseKey normalizes a model-cited sentence key to its canonical
// PREFIX_%04d form ("C_12" -> "C_0012"). Models routinely drop the zero
// padding; anything beyond that is a resolution failure.
func ParseKey(key string) (string, error) {
	prefix, num, ok := strings.Cut(key, "_")
	if !ok || prefix == "" {
		return "", fmt.Errorf("malformed sentence key %q", key)
	}

	n, err := strconv.Atoi(num)
	if err != nil {
		return "", fmt.Errorf("malformed sentence key %q: %w", key, err)
	}

	return fmt.Sprintf("%s_%04d", prefix, n), nil
}

// loadSentences reads a labeled-sentences file: a JSON array of singleton
// {key: text} objects, flattened into one mapping.
func loadSentences(path string) (Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labeled sentences: %w", err)
	}

	var entries []map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse labeled sentences %s: %w", path, err)
	}

	corpus := make(Corpus, len(entries))
	for _, entry := range entries {
		for key, text := range entry {
			if _, dup := corpus[key]; dup {
				return nil, fmt.Errorf("duplicate sentence key %q in %s", key, path)
			}
			corpus[key] = text
		}
	}

	return corpus, nil
}

// LoadPaper reads a structured paper file as raw JSON, ready to embed in a
// prompt. The core never interprets the structure beyond passing it along.
func LoadPaper(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read structured paper: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("structured paper %s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}

// Stems lists the paper identifiers (file name without the .json extension)
// under a directory, sorted for deterministic iteration.
func Stems(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}

	var stems []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		stems = append(stems, strings.TrimSuffix(entry.Name(), ".json"))
	}

	sort.Strings(stems)
	return stems, nil
}

// SentencePath returns the labeled-sentences file for a paper stem.
func SentencePath(root, stem string) string {
	return filepath.Join(root, stem+".json")
}
