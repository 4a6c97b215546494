package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ChatEntry is one question/answer exchange.
type ChatEntry struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Email     string    `json:"email,omitempty"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"timestamp"`
}

// SaveChat records an exchange.
func (s *Store) SaveChat(ctx context.Context, sessionID, email, question, answer string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (session_id, email, question, answer, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, normalizeEmail(email), question, answer, s.timestamp())
	return wrap("save chat", err)
}

// ChatHistory returns a user's exchanges oldest first, optionally limited to
// one session.
func (s *Store) ChatHistory(ctx context.Context, email, sessionID string) ([]ChatEntry, error) {
	query := `SELECT id, session_id, email, question, answer, created_at FROM chats WHERE email = ?`
	args := []any{normalizeEmail(email)}
	if sessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	defer rows.Close()

	entries := []ChatEntry{}
	for rows.Next() {
		var e ChatEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Email, &e.Question, &e.Answer, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SearchLog is one recorded search.
type SearchLog struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email,omitempty"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"timestamp"`
}

// LogSearch records a search query. Anonymous searches use an empty email.
func (s *Store) LogSearch(ctx context.Context, email, query string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_logs (email, query, created_at) VALUES (?, ?, ?)`,
		normalizeEmail(email), query, s.timestamp())
	return wrap("log search", err)
}

// SearchHistory returns up to limit of a user's searches, newest first.
func (s *Store) SearchHistory(ctx context.Context, email string, limit int) ([]SearchLog, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, query, created_at FROM search_logs WHERE email = ? ORDER BY id DESC LIMIT ?`,
		normalizeEmail(email), limit)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	defer rows.Close()

	logs := []SearchLog{}
	for rows.Next() {
		var l SearchLog
		if err := rows.Scan(&l.ID, &l.Email, &l.Query, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// SavedArticle is an article bookmarked by a user.
type SavedArticle struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Image       string    `json:"image"`
	PublishedAt string    `json:"published_at"`
	SavedAt     time.Time `json:"saved_at"`
}

// SaveArticle bookmarks an article for email and returns its id.
func (s *Store) SaveArticle(ctx context.Context, email string, a SavedArticle) (int64, error) {
	if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.URL) == "" {
		return 0, ErrInvalidArticle
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_articles (user_email, title, description, url, source, image, published_at, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		normalizeEmail(email), a.Title, a.Description, a.URL, a.Source, a.Image, a.PublishedAt, s.timestamp())
	if err != nil {
		return 0, fmt.Errorf("save article: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// SavedArticles returns a user's bookmarks, most recent first.
func (s *Store) SavedArticles(ctx context.Context, email string) ([]SavedArticle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, url, source, image, published_at, saved_at
		FROM saved_articles WHERE user_email = ? ORDER BY id DESC`, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("saved articles: %w", err)
	}
	defer rows.Close()

	articles := []SavedArticle{}
	for rows.Next() {
		var a SavedArticle
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.URL, &a.Source, &a.Image, &a.PublishedAt, &a.SavedAt); err != nil {
			return nil, fmt.Errorf("scan saved article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// DeleteSavedArticle removes one of email's bookmarks. It reports whether a
// row was deleted.
func (s *Store) DeleteSavedArticle(ctx context.Context, email string, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_articles WHERE user_email = ? AND id = ?`, normalizeEmail(email), id)
	if err != nil {
		return false, fmt.Errorf("delete saved article: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Digest is a generated weekly digest.
type Digest struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SaveDigest stores a digest for email and returns the stored record.
func (s *Store) SaveDigest(ctx context.Context, email, content string) (*Digest, error) {
	d := &Digest{Email: normalizeEmail(email), Content: content, GeneratedAt: s.timestamp()}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO digests (email, content, generated_at) VALUES (?, ?, ?)`,
		d.Email, d.Content, d.GeneratedAt)
	if err != nil {
		return nil, fmt.Errorf("save digest: %w", err)
	}
	d.ID, _ = res.LastInsertId()
	return d, nil
}

// LatestDigest returns the newest digest for email, or nil, nil.
func (s *Store) LatestDigest(ctx context.Context, email string) (*Digest, error) {
	var d Digest
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, content, generated_at FROM digests WHERE email = ? ORDER BY id DESC LIMIT 1`,
		normalizeEmail(email)).Scan(&d.ID, &d.Email, &d.Content, &d.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest digest: %w", err)
	}
	return &d, nil
}
