// Package db persists scraped course data to PostgreSQL for longer-term
// analysis across scrape sessions.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"catalog-scraper/models"
)

// DB wraps the PostgreSQL connection.
type DB struct {
	conn *sql.DB
}

// NewDB connects using DATABASE_URL or the DB_* component variables and
// ensures the schema exists.
func NewDB() (*DB, error) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		host := envOr("DB_HOST", "localhost")
		port := envOr("DB_PORT", "5432")
		user := envOr("DB_USER", "postgres")
		password := os.Getenv("DB_PASSWORD")
		dbname := envOr("DB_NAME", "catalog")
		sslmode := envOr("DB_SSLMODE", "disable")
		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS course_records (
		id SERIAL PRIMARY KEY,
		course_code TEXT,
		course_title TEXT,
		credits TEXT,
		instructor TEXT,
		schedule TEXT,
		location TEXT,
		raw_text TEXT NOT NULL,
		extracted_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS course_prefixes (
		id SERIAL PRIMARY KEY,
		prefix_code TEXT NOT NULL UNIQUE,
		institution TEXT,
		source_url TEXT,
		extraction_method TEXT,
		extracted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_course_records_code ON course_records(course_code);
	CREATE INDEX IF NOT EXISTS idx_course_records_extracted ON course_records(extracted_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// InsertCourses stores a batch of course records. Returns the number
// inserted.
func (db *DB) InsertCourses(records []models.CourseRecord) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO course_records
			(course_code, course_title, credits, instructor, schedule, location, raw_text, extracted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		_, err := stmt.Exec(r.CourseCode, r.CourseTitle, r.Credits, r.Instructor,
			r.Schedule, r.Location, r.RawText, r.ExtractedAt)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert course %s: %w", r.CourseCode, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

// InsertPrefixes stores harvested prefix codes, skipping ones already known.
// Returns inserted and skipped counts.
func (db *DB) InsertPrefixes(prefixes []string, institution, sourceURL, method string) (int, int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO course_prefixes (prefix_code, institution, source_url, extraction_method, extracted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (prefix_code) DO NOTHING`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	inserted, skipped := 0, 0
	for _, p := range prefixes {
		res, err := stmt.Exec(p, institution, sourceURL, method, now)
		if err != nil {
			return inserted, skipped, fmt.Errorf("failed to insert prefix %s: %w", p, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		} else {
			skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, skipped, nil
}

// CourseCount returns the number of stored course records.
func (db *DB) CourseCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM course_records").Scan(&count)
	return count, err
}

// Close closes the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
