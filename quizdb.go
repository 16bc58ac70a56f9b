package wikiquiz

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB stores generated quizzes for the history listing and detail view.
type DB struct {
	db *sql.DB
}

// OpenDB opens a new database connection
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the quizzes table if it doesn't exist. The compound
// payload fields are stored as JSON text columns.
func (db *DB) CreateTables() error {
	query := `CREATE TABLE IF NOT EXISTS quizzes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		summary TEXT,
		key_entities TEXT,
		sections TEXT,
		quiz_data TEXT NOT NULL,
		related_topics TEXT,
		difficulty TEXT NOT NULL DEFAULT 'mixed',
		created_at DATETIME NOT NULL
	)`
	if _, err := db.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create quizzes table: %w", err)
	}
	return nil
}

// SaveQuiz stores a finished payload and returns its assigned id.
func (db *DB) SaveQuiz(payload *QuizPayload) (int64, error) {
	entities, err := json.Marshal(payload.KeyEntities)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal entities: %w", err)
	}
	sections, err := json.Marshal(payload.Sections)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal sections: %w", err)
	}
	questions, err := json.Marshal(payload.Quiz)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal questions: %w", err)
	}
	topics, err := json.Marshal(payload.RelatedTopics)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal topics: %w", err)
	}

	res, err := db.db.Exec(
		"INSERT INTO quizzes (url, title, summary, key_entities, sections, quiz_data, related_topics, difficulty, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		payload.URL, payload.Title, payload.Summary, string(entities), string(sections),
		string(questions), string(topics), payload.Difficulty, payload.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save quiz: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read quiz id: %w", err)
	}
	return id, nil
}

// GetQuiz retrieves a stored quiz by id. Returns (nil, nil) when no quiz has
// that id.
func (db *DB) GetQuiz(id int64) (*QuizPayload, error) {
	row := db.db.QueryRow(
		"SELECT id, url, title, summary, key_entities, sections, quiz_data, related_topics, difficulty, created_at FROM quizzes WHERE id = ?",
		id,
	)
	payload, err := scanQuiz(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz %d: %w", id, err)
	}
	return payload, nil
}

// CachedQuiz returns an earlier generation for the same url and difficulty,
// or (nil, nil) when none exists.
func (db *DB) CachedQuiz(url, difficulty string) (*QuizPayload, error) {
	row := db.db.QueryRow(
		"SELECT id, url, title, summary, key_entities, sections, quiz_data, related_topics, difficulty, created_at FROM quizzes WHERE url = ? AND difficulty = ? ORDER BY created_at DESC LIMIT 1",
		url, difficulty,
	)
	payload, err := scanQuiz(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up cached quiz: %w", err)
	}
	return payload, nil
}

// ListQuizzes returns history entries, newest first.
func (db *DB) ListQuizzes(skip, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.db.Query(
		"SELECT id, url, title, difficulty, created_at FROM quizzes ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.URL, &e.Title, &e.Difficulty, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quiz: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quizzes: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuiz(row rowScanner) (*QuizPayload, error) {
	var (
		payload   QuizPayload
		entities  string
		sections  string
		questions string
		topics    string
		createdAt time.Time
	)
	err := row.Scan(&payload.ID, &payload.URL, &payload.Title, &payload.Summary,
		&entities, &sections, &questions, &topics, &payload.Difficulty, &createdAt)
	if err != nil {
		return nil, err
	}
	payload.CreatedAt = createdAt

	if err := json.Unmarshal([]byte(entities), &payload.KeyEntities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entities: %w", err)
	}
	if err := json.Unmarshal([]byte(sections), &payload.Sections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sections: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &payload.Quiz); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &payload.RelatedTopics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal topics: %w", err)
	}
	return &payload, nil
}
