// Package news serves the news feed. The upstream API has no news endpoint,
// so articles come from a YAML file shipped with the service.
package news

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Article - новость
type Article struct {
	ID          string    `yaml:"id" json:"id"`
	Title       string    `yaml:"title" json:"title"`
	Summary     string    `yaml:"summary" json:"summary"`
	Body        string    `yaml:"body" json:"body,omitempty"`
	ImageURL    string    `yaml:"image_url" json:"image_url,omitempty"`
	Category    string    `yaml:"category" json:"category"`
	PublishedAt time.Time `yaml:"published_at" json:"published_at"`
}

type feedFile struct {
	Articles []Article `yaml:"articles"`
}

// Feed is an immutable list of articles, newest first.
type Feed struct {
	articles []Article
	byID     map[string]Article
}

// Load reads a feed file. A missing file yields an empty feed.
func Load(path string) (*Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(nil)
		}
		return nil, fmt.Errorf("failed to read news file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Feed, error) {
	var f feedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse news file: %w", err)
	}

	feed := &Feed{byID: make(map[string]Article, len(f.Articles))}
	for _, a := range f.Articles {
		if a.ID == "" {
			return nil, fmt.Errorf("news article %q has no id", a.Title)
		}
		if _, dup := feed.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate news article id %q", a.ID)
		}
		feed.byID[a.ID] = a
		feed.articles = append(feed.articles, a)
	}

	sort.SliceStable(feed.articles, func(i, j int) bool {
		return feed.articles[i].PublishedAt.After(feed.articles[j].PublishedAt)
	})
	return feed, nil
}

// All returns the articles newest first, without bodies.
func (f *Feed) All() []Article {
	out := make([]Article, 0, len(f.articles))
	for _, a := range f.articles {
		a.Body = ""
		out = append(out, a)
	}
	return out
}

func (f *Feed) Get(id string) (Article, bool) {
	a, ok := f.byID[id]
	return a, ok
}
