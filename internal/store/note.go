package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/farman-pharma/apiserver/types"
)

// NoteRepository handles persistence for notes.
type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// List returns every note with the owning user's display name resolved.
// The full list is intentionally unpaginated; filtering happens client-side.
func (r *NoteRepository) List(ctx context.Context) ([]types.Note, error) {
	const query = `
		SELECT n.id, n.title, n.description, n.type, n.date, n.subject, n.file_url, n.owner_id, u.name, n.created_at, n.updated_at
		FROM notes n
		JOIN users u ON u.id = n.owner_id
		ORDER BY n.date DESC, n.id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]types.Note, 0)
	for rows.Next() {
		var note types.Note
		var fileURL sql.NullString
		if err := rows.Scan(
			&note.ID,
			&note.Title,
			&note.Description,
			&note.Type,
			&note.Date,
			&note.Subject,
			&fileURL,
			&note.OwnerID,
			&note.OwnerName,
			&note.CreatedAt,
			&note.UpdatedAt,
		); err != nil {
			return nil, err
		}
		note.FileUrl = fileURL.String
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (r *NoteRepository) Get(ctx context.Context, id int) (types.Note, error) {
	const query = `
		SELECT id, title, description, type, date, subject, file_url, owner_id, created_at, updated_at
		FROM notes
		WHERE id = $1`
	var note types.Note
	var fileURL sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&note.ID,
		&note.Title,
		&note.Description,
		&note.Type,
		&note.Date,
		&note.Subject,
		&fileURL,
		&note.OwnerID,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Note{}, ErrNotFound
		}
		return types.Note{}, err
	}
	note.FileUrl = fileURL.String
	return note, nil
}

func (r *NoteRepository) Create(ctx context.Context, note types.Note) (types.Note, error) {
	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now

	const query = `
		INSERT INTO notes (title, description, type, date, subject, file_url, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		note.Title,
		note.Description,
		note.Type,
		note.Date,
		note.Subject,
		nullString(note.FileUrl),
		note.OwnerID,
		note.CreatedAt,
		note.UpdatedAt,
	).Scan(&note.ID); err != nil {
		return types.Note{}, err
	}
	return note, nil
}

// Update replaces the note's metadata wholesale; fields are never merged.
func (r *NoteRepository) Update(ctx context.Context, note types.Note) (types.Note, error) {
	note.UpdatedAt = time.Now()

	const query = `
		UPDATE notes
		SET title = $1,
			description = $2,
			type = $3,
			date = $4,
			subject = $5,
			file_url = $6,
			updated_at = $7
		WHERE id = $8
		RETURNING created_at, owner_id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		note.Title,
		note.Description,
		note.Type,
		note.Date,
		note.Subject,
		nullString(note.FileUrl),
		note.UpdatedAt,
		note.ID,
	).Scan(&note.CreatedAt, &note.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Note{}, ErrNotFound
		}
		return types.Note{}, err
	}
	return note, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM notes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReassignOwner moves every note owned by fromID to toID. Used when a user
// record is deleted so owned content keeps a valid owner.
func (r *NoteRepository) ReassignOwner(ctx context.Context, fromID, toID int) error {
	const query = `UPDATE notes SET owner_id = $1, updated_at = $2 WHERE owner_id = $3`
	_, err := r.db.ExecContext(ctx, query, toID, time.Now(), fromID)
	return err
}
