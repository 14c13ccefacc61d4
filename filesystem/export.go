// filesystem/export.go

// Package filesystem exports notes as markdown files laid out in a directory
// tree that mirrors the folder hierarchy.
package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/vinizap/lumi-notes/domain"
)

// Summary counts what an export wrote.
type Summary struct {
	Folders int
	Notes   int
}

type Exporter struct {
	dir string
	log zerolog.Logger
}

func NewExporter(dir string, log zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, log: log}
}

// Export writes one directory per folder and one <id>-<slug>.md file per
// note. Unfiled notes, and notes whose folder is unknown, go to the root.
// Existing files with the same names are overwritten; nothing is deleted.
func (e *Exporter) Export(notes []domain.Note, folders []domain.Folder, pinned map[int64]bool) (Summary, error) {
	var sum Summary
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return sum, fmt.Errorf("create export dir: %w", err)
	}

	paths := folderPaths(domain.BuildTree(folders))
	for _, rel := range paths {
		if err := os.MkdirAll(filepath.Join(e.dir, rel), 0755); err != nil {
			return sum, fmt.Errorf("create folder dir %s: %w", rel, err)
		}
		sum.Folders++
	}

	for _, n := range notes {
		rel := ""
		if n.FolderID != nil {
			p, ok := paths[*n.FolderID]
			if ok {
				rel = p
			} else {
				e.log.Warn().Int64("note_id", n.ID).Int64("folder_id", *n.FolderID).Msg("note folder missing, exporting to root")
			}
		}

		doc := &Document{
			Note:   n,
			Folder: filepath.ToSlash(rel),
			Pinned: pinned[n.ID],
			Path:   filepath.Join(e.dir, rel, fmt.Sprintf("%d-%s.md", n.ID, slug(n.Title))),
		}
		doc.Content = toMarkdown(n.Content)
		if err := WriteNote(doc); err != nil {
			return sum, fmt.Errorf("write note %d: %w", n.ID, err)
		}
		sum.Notes++
	}

	e.log.Info().Str("dir", e.dir).Int("folders", sum.Folders).Int("notes", sum.Notes).Msg("export finished")
	return sum, nil
}

// folderPaths maps folder ids to paths relative to the export root. Sibling
// folders whose names slug to the same value get their id appended.
func folderPaths(roots []*domain.HierarchicalFolder) map[int64]string {
	paths := make(map[int64]string)
	assign := func(parent string, nodes []*domain.HierarchicalFolder) {
		used := make(map[string]bool, len(nodes))
		for _, node := range nodes {
			name := slug(node.Name)
			if used[name] {
				name = fmt.Sprintf("%s-%d", name, node.ID)
			}
			used[name] = true
			paths[node.ID] = filepath.Join(parent, name)
		}
	}

	assign("", roots)
	domain.Walk(roots, func(node *domain.HierarchicalFolder, _ int) bool {
		assign(paths[node.ID], node.Children)
		return true
	})
	return paths
}
