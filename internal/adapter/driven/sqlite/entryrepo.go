package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EntryStore = (*EntryRepo)(nil)

// EntryRepo is the SQLite implementation of the EntryStore port interface.
type EntryRepo struct {
	db *DB
}

// NewEntryRepo creates a new EntryRepo backed by the given DB.
func NewEntryRepo(db *DB) *EntryRepo {
	return &EntryRepo{db: db}
}

const entryColumns = `date, mood, weather, content, image_path, created_at, updated_at`

// Save upserts the entry in one statement. created_at is only written on
// insert; an existing row keeps its original creation time.
func (r *EntryRepo) Save(ctx context.Context, entry model.DiaryEntry) error {
	const query = `INSERT INTO diary_entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			mood = excluded.mood,
			weather = excluded.weather,
			content = excluded.content,
			image_path = excluded.image_path,
			updated_at = excluded.updated_at`

	_, err := r.db.Writer.ExecContext(ctx, query,
		entry.Date.String(),
		string(entry.Mood),
		string(entry.Weather),
		entry.Content,
		nullString(entry.ImagePath),
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return &model.StorageError{Op: "save entry " + entry.Date.String(), Err: err}
	}
	return nil
}

// Load returns the entry for date, or nil, nil if none exists.
func (r *EntryRepo) Load(ctx context.Context, date model.Date) (*model.DiaryEntry, error) {
	const query = `SELECT ` + entryColumns + ` FROM diary_entries WHERE date = ?`

	entry, err := scanEntry(r.db.Reader.QueryRowContext(ctx, query, date.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &model.StorageError{Op: "load entry " + date.String(), Err: err}
	}
	return &entry, nil
}

// ListAll returns all entries ordered by date descending.
func (r *EntryRepo) ListAll(ctx context.Context) ([]model.DiaryEntry, error) {
	const query = `SELECT ` + entryColumns + ` FROM diary_entries ORDER BY date DESC`

	entries, err := r.queryEntries(ctx, query)
	if err != nil {
		return nil, &model.StorageError{Op: "list entries", Err: err}
	}
	return entries, nil
}

// ListRange returns entries between from and to inclusive, date descending.
func (r *EntryRepo) ListRange(ctx context.Context, from, to model.Date) ([]model.DiaryEntry, error) {
	const query = `SELECT ` + entryColumns + ` FROM diary_entries
		WHERE date >= ? AND date <= ? ORDER BY date DESC`

	entries, err := r.queryEntries(ctx, query, from.String(), to.String())
	if err != nil {
		return nil, &model.StorageError{Op: fmt.Sprintf("list entries %s..%s", from, to), Err: err}
	}
	return entries, nil
}

func (r *EntryRepo) queryEntries(ctx context.Context, query string, args ...any) ([]model.DiaryEntry, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.DiaryEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (model.DiaryEntry, error) {
	var (
		entry                model.DiaryEntry
		date, mood, weather  string
		imagePath            sql.NullString
		createdAt, updatedAt string
	)

	if err := s.Scan(&date, &mood, &weather, &entry.Content, &imagePath, &createdAt, &updatedAt); err != nil {
		return model.DiaryEntry{}, err
	}

	var err error
	if entry.Date, err = model.ParseDate(date); err != nil {
		return model.DiaryEntry{}, fmt.Errorf("parse date: %w", err)
	}
	if entry.Mood, err = model.ParseMood(mood); err != nil {
		return model.DiaryEntry{}, fmt.Errorf("parse mood for %s: %w", date, err)
	}
	if entry.Weather, err = model.ParseWeather(weather); err != nil {
		return model.DiaryEntry{}, fmt.Errorf("parse weather for %s: %w", date, err)
	}
	entry.ImagePath = imagePath.String

	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.DiaryEntry{}, fmt.Errorf("parse created_at: %w", err)
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.DiaryEntry{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return entry, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
