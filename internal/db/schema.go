package db

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the quiz tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	stmts := schemaSQLite
	if driver == DriverPostgres {
		stmts = schemaPostgres
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

var schemaSQLite = []string{
	`PRAGMA foreign_keys=ON`,
	`CREATE TABLE IF NOT EXISTS quizzes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  module_id INTEGER NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_quizzes_module ON quizzes(module_id)`,
	`CREATE TABLE IF NOT EXISTS questions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  quiz_id INTEGER NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  question_text TEXT NOT NULL,
  option_a TEXT NOT NULL DEFAULT '',
  option_b TEXT NOT NULL DEFAULT '',
  option_c TEXT NOT NULL DEFAULT '',
  option_d TEXT NOT NULL DEFAULT '',
  correct_option TEXT NOT NULL,
  fingerprint TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_quiz ON questions(quiz_id, position)`,
	`CREATE TABLE IF NOT EXISTS quiz_attempts (
  id TEXT PRIMARY KEY,
  module_id INTEGER NOT NULL,
  quiz_id INTEGER,
  learner TEXT NOT NULL DEFAULT '',
  score INTEGER NOT NULL,
  total_questions INTEGER NOT NULL,
  percentage INTEGER NOT NULL,
  passed INTEGER NOT NULL,
  submitted_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_attempts_module ON quiz_attempts(module_id, submitted_at)`,
}

var schemaPostgres = []string{
	`CREATE TABLE IF NOT EXISTS quizzes (
  id BIGSERIAL PRIMARY KEY,
  module_id BIGINT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_quizzes_module ON quizzes(module_id)`,
	`CREATE TABLE IF NOT EXISTS questions (
  id BIGSERIAL PRIMARY KEY,
  quiz_id BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  question_text TEXT NOT NULL,
  option_a TEXT NOT NULL DEFAULT '',
  option_b TEXT NOT NULL DEFAULT '',
  option_c TEXT NOT NULL DEFAULT '',
  option_d TEXT NOT NULL DEFAULT '',
  correct_option TEXT NOT NULL,
  fingerprint TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_quiz ON questions(quiz_id, position)`,
	`CREATE TABLE IF NOT EXISTS quiz_attempts (
  id TEXT PRIMARY KEY,
  module_id BIGINT NOT NULL,
  quiz_id BIGINT,
  learner TEXT NOT NULL DEFAULT '',
  score INTEGER NOT NULL,
  total_questions INTEGER NOT NULL,
  percentage INTEGER NOT NULL,
  passed BOOLEAN NOT NULL,
  submitted_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_attempts_module ON quiz_attempts(module_id, submitted_at)`,
}
