package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shared-notes/internal/models"
)

const noteColumns = `id, title, content, pinned, is_trashed, trashed_at, created_at, updated_at`

func scanNote(row rowScanner) (*models.Note, error) {
	var n models.Note
	var trashedAt sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Pinned, &n.IsTrashed, &trashedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if trashedAt.Valid {
		t := fromStamp(trashedAt.Int64)
		n.TrashedAt = &t
	}
	n.CreatedAt = fromStamp(createdAt)
	n.UpdatedAt = fromStamp(updatedAt)
	return &n, nil
}

func (d *DB) queryNotes(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// ListNotes returns the notes outside the trash, most recently updated first.
// A non-empty query keeps only notes whose title or content contains it,
// ignoring case.
func (d *DB) ListNotes(ctx context.Context, query string) ([]models.Note, error) {
	notes, err := d.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes
		WHERE is_trashed = 0 ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	if query == "" {
		return notes, nil
	}

	needle := strings.ToLower(query)
	matched := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), needle) || strings.Contains(strings.ToLower(n.Content), needle) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

func (d *DB) ListPinnedNotes(ctx context.Context) ([]models.Note, error) {
	notes, err := d.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes
		WHERE is_trashed = 0 AND pinned = 1 ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list pinned notes: %w", err)
	}
	return notes, nil
}

// ListTrashedNotes returns the trash, most recently trashed first.
func (d *DB) ListTrashedNotes(ctx context.Context) ([]models.Note, error) {
	notes, err := d.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes
		WHERE is_trashed = 1 ORDER BY trashed_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list trashed notes: %w", err)
	}
	return notes, nil
}

func (d *DB) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	n, err := scanNote(d.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}
	return n, nil
}

func (d *DB) CreateNote(ctx context.Context, title, content string, pinned bool) (*models.Note, error) {
	now := d.stamp()
	result, err := d.conn.ExecContext(ctx, `INSERT INTO notes (title, content, pinned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, title, content, pinned, now, now)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return d.GetNote(ctx, id)
}

// UpdateNote applies every supplied field of patch. Trashed notes can be
// edited as well.
func (d *DB) UpdateNote(ctx context.Context, id int64, patch models.NotePatch) (*models.Note, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", models.ErrInvalidInput)
	}

	sets := []string{}
	args := []any{}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Pinned != nil {
		sets = append(sets, "pinned = ?")
		args = append(args, *patch.Pinned)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, d.stamp(), id)

	result, err := d.conn.ExecContext(ctx, `UPDATE notes SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err := affectedOne(result, err, id); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return d.GetNote(ctx, id)
}

// TrashNote moves a note to the trash. Trashing it again refreshes trashed_at.
func (d *DB) TrashNote(ctx context.Context, id int64) error {
	now := d.stamp()
	result, err := d.conn.ExecContext(ctx, `UPDATE notes SET is_trashed = 1, trashed_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
	if err := affectedOne(result, err, id); err != nil {
		return fmt.Errorf("trash note: %w", err)
	}
	return nil
}

func (d *DB) RestoreNote(ctx context.Context, id int64) (*models.Note, error) {
	result, err := d.conn.ExecContext(ctx, `UPDATE notes SET is_trashed = 0, trashed_at = NULL, updated_at = ? WHERE id = ?`, d.stamp(), id)
	if err := affectedOne(result, err, id); err != nil {
		return nil, fmt.Errorf("restore note: %w", err)
	}
	return d.GetNote(ctx, id)
}

// DeleteTrashedNote removes a note for good. Notes outside the trash are
// reported as not found so that deletion always goes through the trash.
func (d *DB) DeleteTrashedNote(ctx context.Context, id int64) error {
	result, err := d.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND is_trashed = 1`, id)
	if err := affectedOne(result, err, id); err != nil {
		return fmt.Errorf("delete trashed note: %w", err)
	}
	return nil
}

// DeleteTrashedBefore removes every trashed note whose trashed_at is strictly
// before cutoff, in a single statement.
func (d *DB) DeleteTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := d.conn.ExecContext(ctx, `DELETE FROM notes WHERE is_trashed = 1 AND trashed_at < ?`, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete trashed notes before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete trashed notes: %w", err)
	}
	return n, nil
}

func affectedOne(result sql.Result, err error, id int64) error {
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("note %d: %w", id, models.ErrNotFound)
	}
	return nil
}
