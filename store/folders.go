// store/folders.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/vinizap/lumi-notes/apperr"
	"github.com/vinizap/lumi-notes/domain"
)

const (
	folderNotFound       = "Folder not found"
	parentFolderNotFound = "Parent folder not found"
)

var folderColumns = []string{"id", "name", "color", "icon", "parent_id", "created_at", "updated_at"}

// ancestorQuery reports whether $2 is $1 or one of its ancestors. UNION
// drops repeated rows, so a loop already present in the data terminates.
const ancestorQuery = `
WITH RECURSIVE ancestors AS (
    SELECT id, parent_id FROM folders WHERE id = $1
    UNION
    SELECT f.id, f.parent_id FROM folders f JOIN ancestors a ON f.id = a.parent_id
)
SELECT EXISTS (SELECT 1 FROM ancestors WHERE id = $2)`

type folderRow struct {
	ID        int64          `db:"id"`
	Name      string         `db:"name"`
	Color     sql.NullString `db:"color"`
	Icon      sql.NullString `db:"icon"`
	ParentID  sql.NullInt64  `db:"parent_id"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r folderRow) folder() domain.Folder {
	return domain.Folder{
		ID:        r.ID,
		Name:      r.Name,
		Color:     withDefault(r.Color, domain.DefaultColor),
		Icon:      withDefault(r.Icon, domain.DefaultIcon),
		ParentID:  idPtr(r.ParentID),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ListFolders returns all folders, or the direct children of parentID when it is set.
func (s *Store) ListFolders(ctx context.Context, parentID *int64) ([]domain.Folder, error) {
	q := psql.Select(folderColumns...).From("folders").OrderBy("id")
	if parentID != nil {
		q = q.Where(sq.Eq{"parent_id": *parentID})
	}
	return s.selectFolders(ctx, q)
}

// ListChildren returns the direct children of an existing folder.
func (s *Store) ListChildren(ctx context.Context, id int64) ([]domain.Folder, error) {
	if _, err := s.GetFolder(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound(parentFolderNotFound)
		}
		return nil, err
	}
	return s.ListFolders(ctx, &id)
}

func (s *Store) selectFolders(ctx context.Context, q sq.SelectBuilder) ([]domain.Folder, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list folders: %w", err)
	}

	var rows []folderRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	folders := make([]domain.Folder, 0, len(rows))
	for _, r := range rows {
		folders = append(folders, r.folder())
	}
	return folders, nil
}

func (s *Store) GetFolder(ctx context.Context, id int64) (domain.Folder, error) {
	query, args, err := psql.Select(folderColumns...).From("folders").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Folder{}, fmt.Errorf("build get folder: %w", err)
	}

	var row folderRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Folder{}, translate(err, folderNotFound, parentFolderNotFound)
	}
	return row.folder(), nil
}

func (s *Store) CreateFolder(ctx context.Context, in domain.FolderInput) (domain.Folder, error) {
	query, args, err := psql.Insert("folders").
		Columns("name", "color", "icon", "parent_id").
		Values(in.Name, in.Color, in.Icon, nullableID(in.ParentID)).
		Suffix("RETURNING " + columnList(folderColumns)).
		ToSql()
	if err != nil {
		return domain.Folder{}, fmt.Errorf("build create folder: %w", err)
	}

	var row folderRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Folder{}, translate(err, folderNotFound, parentFolderNotFound)
	}

	s.log.Debug().Int64("folder_id", row.ID).Msg("folder created")
	return row.folder(), nil
}

// UpdateFolder replaces every writable field of the folder. A parent that is
// the folder itself or one of its descendants is rejected.
func (s *Store) UpdateFolder(ctx context.Context, id int64, in domain.FolderInput) (domain.Folder, error) {
	if in.ParentID != nil && *in.ParentID == id {
		return domain.Folder{}, apperr.Validation("Folder cannot be its own parent")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Folder{}, fmt.Errorf("begin update folder: %w", err)
	}
	defer tx.Rollback()

	if in.ParentID != nil {
		var descendant bool
		if err := tx.GetContext(ctx, &descendant, ancestorQuery, *in.ParentID, id); err != nil {
			return domain.Folder{}, fmt.Errorf("check folder ancestry: %w", err)
		}
		if descendant {
			return domain.Folder{}, apperr.Validation("Folder cannot be moved into its own subfolder")
		}
	}

	query, args, err := psql.Update("folders").
		Set("name", in.Name).
		Set("color", in.Color).
		Set("icon", in.Icon).
		Set("parent_id", nullableID(in.ParentID)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + columnList(folderColumns)).
		ToSql()
	if err != nil {
		return domain.Folder{}, fmt.Errorf("build update folder: %w", err)
	}

	var row folderRow
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Folder{}, translate(err, folderNotFound, parentFolderNotFound)
	}
	if err := tx.Commit(); err != nil {
		return domain.Folder{}, fmt.Errorf("commit update folder: %w", err)
	}
	return row.folder(), nil
}

// DeleteFolder removes a folder. Its notes become unfiled and its direct
// children become root folders; nothing else is deleted.
func (s *Store) DeleteFolder(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete folder: %w", err)
	}
	defer tx.Rollback()

	steps := []sq.Sqlizer{
		psql.Update("notes").Set("folder_id", nil).Where(sq.Eq{"folder_id": id}),
		psql.Update("folders").Set("parent_id", nil).Where(sq.Eq{"parent_id": id}),
	}
	for _, step := range steps {
		query, args, err := step.ToSql()
		if err != nil {
			return fmt.Errorf("build delete folder: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("detach folder contents: %w", err)
		}
	}

	query, args, err := psql.Delete("folders").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete folder: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(folderNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete folder: %w", err)
	}
	s.log.Debug().Int64("folder_id", id).Msg("folder deleted")
	return nil
}
