// Package catalog persists scraped contributions in a SQLite database so
// past runs can be queried without re-reading the export files.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/iuming/NAPAC2025-scraper/internal/paper"
	"github.com/iuming/NAPAC2025-scraper/internal/session"
)

// DB wraps a SQLite catalog connection.
type DB struct {
	db *sql.DB
}

// Open opens or creates the catalog at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the catalog connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			session_id TEXT NOT NULL,
			session_name TEXT NOT NULL,
			paper_id TEXT NOT NULL,
			title TEXT NOT NULL,
			authors_json TEXT NOT NULL,
			institutions_json TEXT NOT NULL,
			abstract TEXT,
			doi TEXT,
			paper_url TEXT,
			paper_available INTEGER NOT NULL DEFAULT 0,
			presentation_url TEXT,
			presentation_available INTEGER NOT NULL DEFAULT 0,
			poster_url TEXT,
			poster_available INTEGER NOT NULL DEFAULT 0,
			page_number TEXT,
			checksum TEXT,
			size_bytes INTEGER,
			PRIMARY KEY (session_id, paper_id)
		);

		-- Full-text search mirror (standalone, synced on write)
		CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
			session_id,
			paper_id,
			title,
			abstract,
			authors
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// ReplaceSession replaces all catalog rows of a session with the given
// papers. Re-scraping a session therefore never leaves stale rows behind.
func (d *DB) ReplaceSession(s session.Session, papers []paper.Paper) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM papers WHERE session_id = ?`, s.ID); err != nil {
		return fmt.Errorf("clearing session %s: %w", s.ID, err)
	}
	if _, err := tx.Exec(`DELETE FROM papers_fts WHERE session_id = ?`, s.ID); err != nil {
		return fmt.Errorf("clearing session %s index: %w", s.ID, err)
	}

	for i := range papers {
		p := &papers[i]

		authorsJSON, err := json.Marshal(p.Authors)
		if err != nil {
			return fmt.Errorf("encoding authors for %s: %w", p.ID, err)
		}
		institutionsJSON, err := json.Marshal(p.Institutions)
		if err != nil {
			return fmt.Errorf("encoding institutions for %s: %w", p.ID, err)
		}

		_, err = tx.Exec(`
			INSERT OR REPLACE INTO papers (
				session_id, session_name, paper_id, title,
				authors_json, institutions_json, abstract, doi,
				paper_url, paper_available,
				presentation_url, presentation_available,
				poster_url, poster_available, page_number
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Name, p.ID, p.Title,
			string(authorsJSON), string(institutionsJSON), p.Abstract, p.DOI,
			p.PaperURL, p.PaperAvailable,
			p.PresentationURL, p.PresentationAvailable,
			p.PosterURL, p.PosterAvailable, p.PageNumber)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", p.ID, err)
		}

		_, err = tx.Exec(`
			INSERT INTO papers_fts (session_id, paper_id, title, abstract, authors)
			VALUES (?, ?, ?, ?, ?)`,
			s.ID, p.ID, p.Title, p.Abstract, strings.Join(p.Authors, "; "))
		if err != nil {
			return fmt.Errorf("indexing %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing session %s: %w", s.ID, err)
	}
	return nil
}

// RecordArtifact stores the checksum and size of a downloaded paper
// artifact.
func (d *DB) RecordArtifact(sessionID, paperID, checksum string, size int64) error {
	_, err := d.db.Exec(`
		UPDATE papers SET checksum = ?, size_bytes = ?
		WHERE session_id = ? AND paper_id = ?`,
		checksum, size, sessionID, paperID)
	if err != nil {
		return fmt.Errorf("recording artifact for %s/%s: %w", sessionID, paperID, err)
	}
	return nil
}

// SearchResult is one catalog search hit.
type SearchResult struct {
	SessionID   string   `json:"session_id"`
	SessionName string   `json:"session_name"`
	PaperID     string   `json:"paper_id"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	DOI         string   `json:"doi,omitempty"`
}

// Search runs a full-text query over titles, abstracts and authors.
func (d *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(`
		SELECT p.session_id, p.session_name, p.paper_id, p.title, p.authors_json, p.doi
		FROM papers_fts f
		JOIN papers p ON p.session_id = f.session_id AND p.paper_id = f.paper_id
		WHERE papers_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var authorsJSON string
		var doi sql.NullString
		if err := rows.Scan(&r.SessionID, &r.SessionName, &r.PaperID, &r.Title, &authorsJSON, &doi); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if err := json.Unmarshal([]byte(authorsJSON), &r.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors for %s: %w", r.PaperID, err)
		}
		r.DOI = doi.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	return results, nil
}

// ftsQuery quotes each term so user input cannot inject FTS5 syntax.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, ``) + `"`
	}
	return strings.Join(terms, " ")
}
