// filesystem/parser.go
package filesystem

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vinizap/lumi-notes/domain"
)

// Document is a note as written to disk: yaml frontmatter followed by the
// markdown body.
type Document struct {
	domain.Note `yaml:",inline"`
	Folder      string `yaml:"folder,omitempty"`
	Pinned      bool   `yaml:"pinned,omitempty"`
	Path        string `yaml:"-"`
}

func ReadNote(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := &Document{Path: path}

	parts := bytes.SplitN(data, []byte("---"), 3)
	if len(parts) < 3 || len(bytes.TrimSpace(parts[0])) != 0 {
		return nil, fmt.Errorf("invalid frontmatter format in %s", path)
	}
	if err := yaml.Unmarshal(parts[1], doc); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	doc.Content = string(bytes.TrimSpace(parts[2]))
	return doc, nil
}

func WriteNote(doc *Document) error {
	var buf bytes.Buffer

	buf.WriteString("---\n")

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	encoder.Close()

	buf.WriteString("---\n\n")
	buf.WriteString(doc.Content)
	if !strings.HasSuffix(doc.Content, "\n") {
		buf.WriteString("\n")
	}

	return os.WriteFile(doc.Path, buf.Bytes(), 0644)
}

// ReadTree reads every exported note under root. Files without valid
// frontmatter are skipped.
func ReadTree(root string) ([]*Document, error) {
	var docs []*Document
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		doc, err := ReadNote(path)
		if err != nil {
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
