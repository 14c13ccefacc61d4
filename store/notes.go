// store/notes.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/vinizap/lumi-notes/apperr"
	"github.com/vinizap/lumi-notes/domain"
)

const (
	noteNotFound       = "Note not found"
	noteFolderNotFound = "Folder not found"
)

var noteColumns = []string{"id", "title", "content", "tags", "color", "folder_id", "created_at", "updated_at"}

type noteRow struct {
	ID        int64          `db:"id"`
	Title     string         `db:"title"`
	Content   sql.NullString `db:"content"`
	Tags      sql.NullString `db:"tags"`
	Color     sql.NullString `db:"color"`
	FolderID  sql.NullInt64  `db:"folder_id"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r noteRow) note() domain.Note {
	return domain.Note{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content.String,
		Tags:      decodeTags(r.Tags.String),
		Color:     withDefault(r.Color, domain.DefaultColor),
		FolderID:  idPtr(r.FolderID),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ListNotes returns all notes, or only those in folderID when it is set.
func (s *Store) ListNotes(ctx context.Context, folderID *int64) ([]domain.Note, error) {
	q := psql.Select(noteColumns...).From("notes").OrderBy("id")
	if folderID != nil {
		q = q.Where(sq.Eq{"folder_id": *folderID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list notes: %w", err)
	}

	var rows []noteRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	notes := make([]domain.Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.note())
	}
	return notes, nil
}

func (s *Store) GetNote(ctx context.Context, id int64) (domain.Note, error) {
	query, args, err := psql.Select(noteColumns...).From("notes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Note{}, fmt.Errorf("build get note: %w", err)
	}

	var row noteRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Note{}, translate(err, noteNotFound, noteFolderNotFound)
	}
	return row.note(), nil
}

func (s *Store) CreateNote(ctx context.Context, in domain.NoteInput) (domain.Note, error) {
	query, args, err := psql.Insert("notes").
		Columns("title", "content", "tags", "color", "folder_id").
		Values(in.Title, in.Content, encodeTags(in.Tags), in.Color, nullableID(in.FolderID)).
		Suffix("RETURNING " + columnList(noteColumns)).
		ToSql()
	if err != nil {
		return domain.Note{}, fmt.Errorf("build create note: %w", err)
	}

	var row noteRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Note{}, translate(err, noteNotFound, noteFolderNotFound)
	}

	s.log.Debug().Int64("note_id", row.ID).Msg("note created")
	return row.note(), nil
}

// UpdateNote replaces every writable field of the note.
func (s *Store) UpdateNote(ctx context.Context, id int64, in domain.NoteInput) (domain.Note, error) {
	query, args, err := psql.Update("notes").
		Set("title", in.Title).
		Set("content", in.Content).
		Set("tags", encodeTags(in.Tags)).
		Set("color", in.Color).
		Set("folder_id", nullableID(in.FolderID)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + columnList(noteColumns)).
		ToSql()
	if err != nil {
		return domain.Note{}, fmt.Errorf("build update note: %w", err)
	}

	var row noteRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Note{}, translate(err, noteNotFound, noteFolderNotFound)
	}
	return row.note(), nil
}

func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("notes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete note: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(noteNotFound)
	}
	return nil
}
