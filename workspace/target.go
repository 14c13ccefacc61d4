// workspace/target.go
package workspace

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vinizap/lumi-notes/apperr"
	"github.com/vinizap/lumi-notes/domain"
)

const (
	unfiledContainer = "unfiled"
	folderPrefix     = "folder-"
)

// Target is where a dropped note goes: a folder or the unfiled section.
type Target struct {
	folderID *int64
}

func Unfiled() Target {
	return Target{}
}

func IntoFolder(id int64) Target {
	return Target{folderID: domain.ID(id)}
}

// ParseTarget maps a drop container id ("unfiled" or "folder-<id>") to a Target.
func ParseTarget(container string) (Target, error) {
	if container == unfiledContainer {
		return Unfiled(), nil
	}
	raw, ok := strings.CutPrefix(container, folderPrefix)
	if !ok {
		return Target{}, apperr.Validationf("Unknown drop target %q", container)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return Target{}, apperr.Validationf("Unknown drop target %q", container)
	}
	return IntoFolder(id), nil
}

// FolderID is nil for the unfiled section.
func (t Target) FolderID() *int64 {
	return domain.CopyID(t.folderID)
}

func (t Target) IsUnfiled() bool {
	return t.folderID == nil
}

// String returns the drop container id.
func (t Target) String() string {
	if t.folderID == nil {
		return unfiledContainer
	}
	return fmt.Sprintf("%s%d", folderPrefix, *t.folderID)
}
