// workspace/state.go

// Package workspace holds the client-side view of notes and folders: the
// data, the expansion and pin sets, drag state and filters. State values are
// immutable; every transition returns a new State.
package workspace

import (
	"sort"
	"strings"

	"github.com/vinizap/lumi-notes/domain"
)

// Expansion is the set of open folders plus the unfiled section's flag.
// It is never persisted.
type Expansion struct {
	Folders map[int64]bool
	Unfiled bool
}

type State struct {
	Notes    []domain.Note
	Folders  []domain.Folder
	Expanded Expansion
	Pinned   map[int64]bool

	// Dragging is the note being dragged, if any.
	Dragging *int64
	Selected *int64

	Search string
	Tag    string
}

func NewState() State {
	return State{
		Notes:    []domain.Note{},
		Folders:  []domain.Folder{},
		Expanded: Expansion{Folders: map[int64]bool{}},
		Pinned:   map[int64]bool{},
	}
}

func cloneSet(m map[int64]bool) map[int64]bool {
	out := make(map[int64]bool, len(m))
	for k, v := range m {
		if v {
			out[k] = true
		}
	}
	return out
}

// Clone returns a State that shares no mutable memory with s.
func (s State) Clone() State {
	out := s
	out.Notes = make([]domain.Note, len(s.Notes))
	for i, n := range s.Notes {
		out.Notes[i] = cloneNote(n)
	}
	out.Folders = make([]domain.Folder, len(s.Folders))
	for i, f := range s.Folders {
		f.ParentID = domain.CopyID(f.ParentID)
		out.Folders[i] = f
	}
	out.Expanded.Folders = cloneSet(s.Expanded.Folders)
	out.Pinned = cloneSet(s.Pinned)
	out.Dragging = domain.CopyID(s.Dragging)
	out.Selected = domain.CopyID(s.Selected)
	return out
}

func cloneNote(n domain.Note) domain.Note {
	if n.Tags != nil {
		n.Tags = append([]string(nil), n.Tags...)
	}
	n.FolderID = domain.CopyID(n.FolderID)
	return n
}

func (s State) ToggleFolder(id int64) State {
	s.Expanded.Folders = cloneSet(s.Expanded.Folders)
	if s.Expanded.Folders[id] {
		delete(s.Expanded.Folders, id)
	} else {
		s.Expanded.Folders[id] = true
	}
	return s
}

func (s State) ToggleUnfiled() State {
	s.Expanded.Unfiled = !s.Expanded.Unfiled
	return s
}

// ExpandAll opens every known folder and the unfiled section.
func (s State) ExpandAll() State {
	s.Expanded.Folders = make(map[int64]bool, len(s.Folders))
	for _, f := range s.Folders {
		s.Expanded.Folders[f.ID] = true
	}
	s.Expanded.Unfiled = true
	return s
}

func (s State) IsExpanded(id int64) bool {
	return s.Expanded.Folders[id]
}

func (s State) TogglePin(id int64) State {
	s.Pinned = cloneSet(s.Pinned)
	if s.Pinned[id] {
		delete(s.Pinned, id)
	} else {
		s.Pinned[id] = true
	}
	return s
}

func (s State) WithPinned(ids []int64) State {
	s.Pinned = make(map[int64]bool, len(ids))
	for _, id := range ids {
		s.Pinned[id] = true
	}
	return s
}

// PinnedIDs returns the pinned ids in ascending order.
func (s State) PinnedIDs() []int64 {
	ids := make([]int64, 0, len(s.Pinned))
	for id, ok := range s.Pinned {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s State) Select(id *int64) State {
	s.Selected = domain.CopyID(id)
	return s
}

func (s State) WithSearch(q string) State {
	s.Search = q
	return s
}

func (s State) WithTag(tag string) State {
	s.Tag = tag
	return s
}

func (s State) BeginDrag(noteID int64) State {
	s.Dragging = domain.ID(noteID)
	return s
}

func (s State) CancelDrag() State {
	s.Dragging = nil
	return s
}

// WithNotes replaces the note collection, as after a full refetch. A selected
// note that no longer exists is deselected.
func (s State) WithNotes(notes []domain.Note) State {
	s.Notes = make([]domain.Note, len(notes))
	for i, n := range notes {
		s.Notes[i] = cloneNote(n)
	}
	if s.Selected != nil {
		if _, ok := s.Note(*s.Selected); !ok {
			s.Selected = nil
		}
	}
	return s
}

// WithFolders replaces the folder collection. Expansion entries for folders
// that are gone are dropped.
func (s State) WithFolders(folders []domain.Folder) State {
	s.Folders = make([]domain.Folder, len(folders))
	known := make(map[int64]bool, len(folders))
	for i, f := range folders {
		f.ParentID = domain.CopyID(f.ParentID)
		s.Folders[i] = f
		known[f.ID] = true
	}
	expanded := make(map[int64]bool, len(s.Expanded.Folders))
	for id, ok := range s.Expanded.Folders {
		if ok && known[id] {
			expanded[id] = true
		}
	}
	s.Expanded.Folders = expanded
	return s
}

// ReplaceNote swaps in note by id. Unknown ids leave the state unchanged.
func (s State) ReplaceNote(note domain.Note) State {
	for i := range s.Notes {
		if s.Notes[i].ID != note.ID {
			continue
		}
		notes := make([]domain.Note, len(s.Notes))
		copy(notes, s.Notes)
		notes[i] = cloneNote(note)
		s.Notes = notes
		return s
	}
	return s
}

func (s State) Note(id int64) (domain.Note, bool) {
	for _, n := range s.Notes {
		if n.ID == id {
			return cloneNote(n), true
		}
	}
	return domain.Note{}, false
}

func (s State) Folder(id int64) (domain.Folder, bool) {
	for _, f := range s.Folders {
		if f.ID == id {
			f.ParentID = domain.CopyID(f.ParentID)
			return f, true
		}
	}
	return domain.Folder{}, false
}

// VisibleNotes applies the search and tag filters. Search matches title and
// content case-insensitively.
func (s State) VisibleNotes() []domain.Note {
	q := strings.ToLower(strings.TrimSpace(s.Search))
	out := make([]domain.Note, 0, len(s.Notes))
	for _, n := range s.Notes {
		if s.Tag != "" && !n.HasTag(s.Tag) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(n.Title), q) &&
			!strings.Contains(strings.ToLower(n.Content), q) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Tags returns every distinct tag in use, sorted.
func (s State) Tags() []string {
	seen := map[string]bool{}
	var tags []string
	for _, n := range s.Notes {
		for _, t := range n.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}
