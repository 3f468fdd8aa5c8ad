package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

var _ driven.EntryStore = (*EntryRepo)(nil)

// EntryRepo stores diary entries in the diary_entries table.
type EntryRepo struct {
	db *sql.DB
}

func NewEntryRepo(db *sql.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

func (r *EntryRepo) Save(ctx context.Context, entry model.DiaryEntry) error {
	query := `INSERT INTO diary_entries (date, mood, weather, content, image_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (date) DO UPDATE SET
			mood = EXCLUDED.mood,
			weather = EXCLUDED.weather,
			content = EXCLUDED.content,
			image_path = EXCLUDED.image_path,
			updated_at = EXCLUDED.updated_at;`

	_, err := r.db.ExecContext(ctx, query,
		entry.Date.Time(),
		string(entry.Mood),
		string(entry.Weather),
		entry.Content,
		sql.NullString{String: entry.ImagePath, Valid: entry.ImagePath != ""},
		entry.CreatedAt.UTC(),
		entry.UpdatedAt.UTC(),
	)
	if err != nil {
		return &model.StorageError{Op: "save entry " + entry.Date.String(), Err: err}
	}
	return nil
}

func (r *EntryRepo) Load(ctx context.Context, date model.Date) (*model.DiaryEntry, error) {
	query := `SELECT date, mood, weather, content, image_path, created_at, updated_at
		FROM diary_entries WHERE date = $1;`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, date.Time()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &model.StorageError{Op: "load entry " + date.String(), Err: err}
	}
	return &entry, nil
}

func (r *EntryRepo) ListAll(ctx context.Context) ([]model.DiaryEntry, error) {
	query := `SELECT date, mood, weather, content, image_path, created_at, updated_at
		FROM diary_entries ORDER BY date DESC;`

	entries, err := r.list(ctx, query)
	if err != nil {
		return nil, &model.StorageError{Op: "list entries", Err: err}
	}
	return entries, nil
}

func (r *EntryRepo) ListRange(ctx context.Context, from, to model.Date) ([]model.DiaryEntry, error) {
	query := `SELECT date, mood, weather, content, image_path, created_at, updated_at
		FROM diary_entries WHERE date BETWEEN $1 AND $2 ORDER BY date DESC;`

	entries, err := r.list(ctx, query, from.Time(), to.Time())
	if err != nil {
		return nil, &model.StorageError{Op: fmt.Sprintf("list entries %s..%s", from, to), Err: err}
	}
	return entries, nil
}

func (r *EntryRepo) list(ctx context.Context, query string, args ...any) ([]model.DiaryEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DiaryEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (model.DiaryEntry, error) {
	var (
		day                  time.Time
		mood, weather        string
		content              string
		imagePath            sql.NullString
		createdAt, updatedAt time.Time
	)
	if err := s.Scan(&day, &mood, &weather, &content, &imagePath, &createdAt, &updatedAt); err != nil {
		return model.DiaryEntry{}, err
	}

	m, err := model.ParseMood(mood)
	if err != nil {
		return model.DiaryEntry{}, err
	}
	w, err := model.ParseWeather(weather)
	if err != nil {
		return model.DiaryEntry{}, err
	}

	return model.DiaryEntry{
		Date:      model.DateOf(day),
		Mood:      m,
		Weather:   w,
		Content:   content,
		ImagePath: imagePath.String,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
