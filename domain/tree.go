// domain/tree.go
package domain

// HierarchicalFolder is a folder with its child folders materialized.
// Trees are rebuilt from the flat list on every change, never patched.
type HierarchicalFolder struct {
	Folder
	Children []*HierarchicalFolder `json:"children"`
}

// BuildTree turns an unordered folder list into a forest and returns its roots.
//
// A folder whose parent does not resolve to a folder in the list is a root.
// Every parent cycle is broken at the member with the smallest id, which then
// becomes a root; the result therefore does not depend on input order.
// Roots and children keep the order in which they appear in folders.
func BuildTree(folders []Folder) []*HierarchicalFolder {
	index := make(map[int64]*HierarchicalFolder, len(folders))
	order := make([]*HierarchicalFolder, 0, len(folders))
	for _, f := range folders {
		if _, dup := index[f.ID]; dup {
			continue
		}
		node := &HierarchicalFolder{Folder: f, Children: []*HierarchicalFolder{}}
		index[f.ID] = node
		order = append(order, node)
	}

	parentOf := func(id int64) (int64, bool) {
		node := index[id]
		if node.ParentID == nil {
			return 0, false
		}
		if _, ok := index[*node.ParentID]; !ok {
			return 0, false
		}
		return *node.ParentID, true
	}
	detached := breakCycles(order, parentOf)

	roots := make([]*HierarchicalFolder, 0)
	for _, node := range order {
		parentID, ok := parentOf(node.ID)
		if !ok || detached[node.ID] {
			roots = append(roots, node)
			continue
		}
		parent := index[parentID]
		parent.Children = append(parent.Children, node)
	}
	return roots
}

const (
	unvisited = iota
	visiting
	visited
)

// breakCycles walks every ancestor chain once and returns, for each cycle
// found, the id of its smallest member.
func breakCycles(order []*HierarchicalFolder, parentOf func(int64) (int64, bool)) map[int64]bool {
	state := make(map[int64]int, len(order))
	detached := make(map[int64]bool)

	for _, node := range order {
		var path []int64
		cur := node.ID
		cyclic := false
		for {
			if s := state[cur]; s == visiting {
				cyclic = true
				break
			} else if s == visited {
				break
			}
			state[cur] = visiting
			path = append(path, cur)
			next, ok := parentOf(cur)
			if !ok {
				break
			}
			cur = next
		}

		if cyclic {
			start := 0
			for i, id := range path {
				if id == cur {
					start = i
					break
				}
			}
			lowest := path[start]
			for _, id := range path[start:] {
				if id < lowest {
					lowest = id
				}
			}
			detached[lowest] = true
		}
		for _, id := range path {
			state[id] = visited
		}
	}
	return detached
}

// WouldCycle reports whether giving folder id the parent parentID would make
// the folder its own ancestor. Ancestors are resolved against folders; a
// chain that leaves the list or loops without reaching id is not a cycle.
func WouldCycle(folders []Folder, id int64, parentID *int64) bool {
	if parentID == nil {
		return false
	}
	parents := make(map[int64]*int64, len(folders))
	for _, f := range folders {
		if _, dup := parents[f.ID]; !dup {
			parents[f.ID] = f.ParentID
		}
	}

	seen := make(map[int64]bool)
	cur := *parentID
	for {
		if cur == id {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
		next, ok := parents[cur]
		if !ok || next == nil {
			return false
		}
		cur = *next
	}
}

// Walk visits the forest depth first, skipping any folder already visited.
// fn returning false prunes the subtree below that folder.
func Walk(roots []*HierarchicalFolder, fn func(node *HierarchicalFolder, depth int) bool) {
	seen := make(map[int64]bool)
	var visit func(nodes []*HierarchicalFolder, depth int)
	visit = func(nodes []*HierarchicalFolder, depth int) {
		for _, node := range nodes {
			if seen[node.ID] {
				continue
			}
			seen[node.ID] = true
			if fn(node, depth) {
				visit(node.Children, depth+1)
			}
		}
	}
	visit(roots, 0)
}

// NoteCounts holds per-folder note counts for one note list.
type NoteCounts struct {
	ByFolder map[int64]int
	Unfiled  int
}

// Folder returns the number of notes directly in folder id.
func (c NoteCounts) Folder(id int64) int {
	return c.ByFolder[id]
}

// CountNotes counts notes per folder. Notes are not attributed to ancestors.
func CountNotes(notes []Note) NoteCounts {
	counts := NoteCounts{ByFolder: make(map[int64]int)}
	for _, n := range notes {
		if n.FolderID == nil {
			counts.Unfiled++
			continue
		}
		counts.ByFolder[*n.FolderID]++
	}
	return counts
}
