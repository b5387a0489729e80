package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileStore reads blog posts from the site-content JSON document and
// categories from an optional YAML catalog.
type FileStore struct {
	siteContentPath string
	categoriesPath  string
	logger          *zap.Logger
}

// NewFileStore builds a FileStore. An empty categoriesPath selects
// DefaultCategories.
func NewFileStore(siteContentPath, categoriesPath string, logger *zap.Logger) (*FileStore, error) {
	if strings.TrimSpace(siteContentPath) == "" {
		return nil, fmt.Errorf("site content path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{siteContentPath: siteContentPath, categoriesPath: categoriesPath, logger: logger}, nil
}

type siteContentDocument struct {
	Blog *struct {
		Posts []BlogPost `json:"posts"`
	} `json:"blog"`
}

type categoriesDocument struct {
	Categories []Category `yaml:"categories"`
}

// Read loads both documents. A site-content file that is missing or cannot
// be parsed yields DefaultPosts; a broken categories file is an error.
func (s *FileStore) Read(_ context.Context) (Content, error) {
	posts, err := s.readPosts()
	if err != nil {
		s.logger.Warn("site content unreadable, using built-in posts",
			zap.String("path", s.siteContentPath), zap.Error(err))
		posts = append([]BlogPost(nil), DefaultPosts...)
	}

	categories := append([]Category(nil), DefaultCategories...)
	if s.categoriesPath != "" {
		categories, err = readCategories(s.categoriesPath)
		if err != nil {
			return Content{}, err
		}
	}
	return Content{Posts: posts, Categories: categories}, nil
}

func (s *FileStore) readPosts() ([]BlogPost, error) {
	// #nosec G304 -- path comes from operator configuration.
	raw, err := os.ReadFile(s.siteContentPath)
	if err != nil {
		return nil, fmt.Errorf("read site content: %w", err)
	}
	var doc siteContentDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse site content %s: %w", s.siteContentPath, err)
	}
	if doc.Blog == nil {
		return append([]BlogPost(nil), DefaultPosts...), nil
	}
	return doc.Blog.Posts, nil
}

func readCategories(path string) ([]Category, error) {
	// #nosec G304 -- path comes from operator configuration.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	var doc categoriesDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse categories %s: %w", path, err)
	}
	for i, c := range doc.Categories {
		if c.Segment == "" || c.Slug == "" {
			return nil, fmt.Errorf("category %d in %s needs both segment and slug", i, path)
		}
	}
	return doc.Categories, nil
}
