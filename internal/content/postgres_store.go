package content

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the Postgres content source.
type PostgresConfig struct {
	DSN             string
	PostsTable      string
	CategoriesTable string
}

type queryCloser interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore reads content from Postgres tables.
type PostgresStore struct {
	pool            queryCloser
	postsTable      string
	categoriesTable string
}

// NewPostgresStore connects a pool for cfg.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("content.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewPostgresStoreWithPool(pool, cfg.PostsTable, cfg.CategoriesTable)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewPostgresStoreWithPool(pool queryCloser, postsTable, categoriesTable string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if postsTable == "" {
		postsTable = "blog_posts"
	}
	if categoriesTable == "" {
		categoriesTable = "categories"
	}
	for _, table := range []string{postsTable, categoriesTable} {
		if !validTableName.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return &PostgresStore{pool: pool, postsTable: postsTable, categoriesTable: categoriesTable}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Read loads every post and category.
func (s *PostgresStore) Read(ctx context.Context) (Content, error) {
	posts, err := s.readPosts(ctx)
	if err != nil {
		return Content{}, err
	}
	categories, err := s.readCategories(ctx)
	if err != nil {
		return Content{}, err
	}
	return Content{Posts: posts, Categories: categories}, nil
}

func (s *PostgresStore) readPosts(ctx context.Context) ([]BlogPost, error) {
	// #nosec G201 -- table name validated against validTableName.
	query := fmt.Sprintf("SELECT slug, status FROM %s ORDER BY slug", s.postsTable)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		var post BlogPost
		if err := rows.Scan(&post.Slug, &post.Status); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func (s *PostgresStore) readCategories(ctx context.Context) ([]Category, error) {
	// #nosec G201 -- table name validated against validTableName.
	query := fmt.Sprintf("SELECT segment, slug FROM %s ORDER BY segment, slug", s.categoriesTable)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Segment, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}
