// workspace/render.go
package workspace

import (
	"sort"

	"github.com/vinizap/lumi-notes/domain"
)

// MaxDepth bounds folder nesting in Render. Deeper folders are not shown.
const MaxDepth = 64

type RowKind int

const (
	RowFolder RowKind = iota
	RowNote
	RowUnfiled
)

func (k RowKind) String() string {
	switch k {
	case RowFolder:
		return "folder"
	case RowNote:
		return "note"
	case RowUnfiled:
		return "unfiled"
	default:
		return "unknown"
	}
}

// Row is one line of the sidebar tree. Folder and unfiled rows carry the
// note count of the current filtered list; note rows carry the note.
type Row struct {
	Kind     RowKind
	Depth    int
	Folder   *domain.Folder
	Note     *domain.Note
	Count    int
	Expanded bool
	Pinned   bool
}

// Render flattens the tree into rows. An expanded folder shows its child
// folders, then its notes; a collapsed one shows only its own row. The
// unfiled section comes last. Counts are recomputed on every call.
func (s State) Render() []Row {
	visible := s.VisibleNotes()
	counts := domain.CountNotes(visible)

	byFolder := map[int64][]domain.Note{}
	var unfiled []domain.Note
	for _, n := range visible {
		if n.FolderID == nil {
			unfiled = append(unfiled, n)
		} else {
			byFolder[*n.FolderID] = append(byFolder[*n.FolderID], n)
		}
	}

	r := renderer{
		state:    s,
		counts:   counts,
		byFolder: byFolder,
		visited:  map[int64]bool{},
	}
	for _, root := range domain.BuildTree(s.Folders) {
		r.folder(root, 0)
	}

	r.rows = append(r.rows, Row{
		Kind:     RowUnfiled,
		Count:    counts.Unfiled,
		Expanded: s.Expanded.Unfiled,
	})
	if s.Expanded.Unfiled {
		r.notes(unfiled, 1)
	}
	return r.rows
}

type renderer struct {
	state    State
	counts   domain.NoteCounts
	byFolder map[int64][]domain.Note
	visited  map[int64]bool
	rows     []Row
}

func (r *renderer) folder(node *domain.HierarchicalFolder, depth int) {
	if depth >= MaxDepth || r.visited[node.ID] {
		return
	}
	r.visited[node.ID] = true

	f := node.Folder
	expanded := r.state.IsExpanded(f.ID)
	r.rows = append(r.rows, Row{
		Kind:     RowFolder,
		Depth:    depth,
		Folder:   &f,
		Count:    r.counts.Folder(f.ID),
		Expanded: expanded,
	})
	if !expanded {
		return
	}
	for _, child := range node.Children {
		r.folder(child, depth+1)
	}
	r.notes(r.byFolder[f.ID], depth+1)
}

// notes emits note rows, pinned first, otherwise in list order.
func (r *renderer) notes(notes []domain.Note, depth int) {
	ordered := make([]domain.Note, len(notes))
	copy(ordered, notes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return r.state.Pinned[ordered[i].ID] && !r.state.Pinned[ordered[j].ID]
	})
	for i := range ordered {
		n := ordered[i]
		r.rows = append(r.rows, Row{
			Kind:   RowNote,
			Depth:  depth,
			Note:   &n,
			Pinned: r.state.Pinned[n.ID],
		})
	}
}
