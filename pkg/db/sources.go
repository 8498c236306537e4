package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"feedbook/pkg/domain"
)

// EnsureSource returns the source registered for url, creating it with the
// given title on first sight. The title recorded at creation time sticks: the
// first successful normalization of a URL determines the header for all its
// articles.
func (db *DB) EnsureSource(ctx context.Context, url, title string) (domain.Source, error) {
	src, err := db.GetSourceByURL(ctx, url)
	switch {
	case err == nil:
		return src, nil
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Source{}, err
	}

	var res sql.Result
	err = withRetry(ctx, func() error {
		var execErr error
		res, execErr = db.conn.ExecContext(ctx, `INSERT INTO sources (url, title) VALUES (?, ?)`, url, title)
		return execErr
	})
	if err != nil {
		return domain.Source{}, fmt.Errorf("insert source: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Source{}, fmt.Errorf("get last insert id: %w", err)
	}
	return domain.Source{ID: id, URL: url, Title: title}, nil
}

// GetSourceByURL retrieves a source by its feed URL, domain.ErrNotFound if
// the URL was never seen
func (db *DB) GetSourceByURL(ctx context.Context, url string) (domain.Source, error) {
	var row sourceRow
	err := db.conn.GetContext(ctx, &row, `SELECT * FROM sources WHERE url = ?`, url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Source{}, fmt.Errorf("source %q: %w", url, domain.ErrNotFound)
		}
		return domain.Source{}, fmt.Errorf("get source by url: %w", err)
	}
	return row.toDomain(), nil
}

// GetSource retrieves a source by ID
func (db *DB) GetSource(ctx context.Context, id int64) (domain.Source, error) {
	var row sourceRow
	err := db.conn.GetContext(ctx, &row, `SELECT * FROM sources WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Source{}, fmt.Errorf("source %d: %w", id, domain.ErrNotFound)
		}
		return domain.Source{}, fmt.Errorf("get source: %w", err)
	}
	return row.toDomain(), nil
}

// GetSources retrieves all registered sources
func (db *DB) GetSources(ctx context.Context) ([]domain.Source, error) {
	var rows []sourceRow
	if err := db.conn.SelectContext(ctx, &rows, `SELECT * FROM sources ORDER BY id`); err != nil {
		return nil, fmt.Errorf("get sources: %w", err)
	}
	sources := make([]domain.Source, 0, len(rows))
	for _, r := range rows {
		sources = append(sources, r.toDomain())
	}
	return sources, nil
}

// DeleteSource removes a source and, through the foreign key cascade, all of
// its articles
func (db *DB) DeleteSource(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("source %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
