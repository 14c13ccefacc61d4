// domain/note.go
package domain

import "time"

const (
	DefaultColor = "#6366f1"
	DefaultIcon  = "📁"
)

// Note is a single note. A nil FolderID means the note is unfiled.
type Note struct {
	ID        int64     `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"-"`
	Tags      []string  `json:"tags" yaml:"tags"`
	Color     string    `json:"color" yaml:"color"`
	FolderID  *int64    `json:"folder_id" yaml:"folder_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Folder is a folder record. A nil ParentID places the folder at root level.
type Folder struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	ParentID  *int64    `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteInput is the full writable record of a note. Updates replace every
// field, so callers moving a note must pass the other fields through.
type NoteInput struct {
	Title    string   `json:"title" validate:"notblank,max=100"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags" validate:"omitempty,dive,notblank,max=50"`
	Color    string   `json:"color" validate:"max=20"`
	FolderID *int64   `json:"folder_id"`
}

// FolderInput is the full writable record of a folder.
type FolderInput struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Color    string `json:"color" validate:"max=20"`
	Icon     string `json:"icon" validate:"max=10"`
	ParentID *int64 `json:"parent_id"`
}

// Input returns the writable part of the note.
func (n Note) Input() NoteInput {
	tags := make([]string, len(n.Tags))
	copy(tags, n.Tags)
	return NoteInput{
		Title:    n.Title,
		Content:  n.Content,
		Tags:     tags,
		Color:    n.Color,
		FolderID: CopyID(n.FolderID),
	}
}

// Input returns the writable part of the folder.
func (f Folder) Input() FolderInput {
	return FolderInput{
		Name:     f.Name,
		Color:    f.Color,
		Icon:     f.Icon,
		ParentID: CopyID(f.ParentID),
	}
}

// InFolder reports whether the note belongs to the given folder; nil means unfiled.
func (n Note) InFolder(folderID *int64) bool {
	return SameID(n.FolderID, folderID)
}

// HasTag reports whether the note carries tag.
func (n Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ID returns a pointer to a copy of id.
func ID(id int64) *int64 {
	return &id
}

// CopyID returns an independent copy of an optional id.
func CopyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// SameID compares two optional ids by value.
func SameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
