package corpus

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Loader reads labeled-sentence corpora with an in-memory TTL cache. Every
// pipeline stage revisits the same per-paper sentence files, so parsed
// corpora are kept around instead of re-read and re-flattened each time.
type Loader struct {
	root  string
	cache *gocache.Cache
}

// NewLoader creates a loader rooted at the labeled-sentences directory.
func NewLoader(root string) *Loader {
	return &Loader{
		root:  root,
		cache: gocache.New(30*time.Minute, 10*time.Minute),
	}
}

// Root returns the labeled-sentences directory.
func (l *Loader) Root() string {
	return l.root
}

// Sentences returns the corpus for one paper stem, from cache when possible.
func (l *Loader) Sentences(stem string) (Corpus, error) {
	if cached, ok := l.cache.Get(stem); ok {
		return cached.(Corpus), nil
	}

	corpus, err := loadSentences(SentencePath(l.root, stem))
	if err != nil {
		return nil, err
	}

	l.cache.Set(stem, corpus, gocache.DefaultExpiration)
	return corpus, nil
}
