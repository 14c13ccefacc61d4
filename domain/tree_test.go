// domain/tree_test.go
package domain

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func folder(id int64, parent *int64) Folder {
	return Folder{ID: id, Name: fmt.Sprintf("folder-%d", id), ParentID: parent}
}

// shape renders a forest as "root set | parent->children" with sorted ids so
// trees built from different input orders can be compared.
func shape(roots []*HierarchicalFolder) string {
	var rootIDs []int64
	edges := map[int64][]int64{}
	Walk(roots, func(node *HierarchicalFolder, depth int) bool {
		if depth == 0 {
			rootIDs = append(rootIDs, node.ID)
		}
		for _, child := range node.Children {
			edges[node.ID] = append(edges[node.ID], child.ID)
		}
		return true
	})
	sort.Slice(rootIDs, func(i, j int) bool { return rootIDs[i] < rootIDs[j] })

	parents := make([]int64, 0, len(edges))
	for p, children := range edges {
		sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
		parents = append(parents, p)
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })

	out := fmt.Sprint(rootIDs)
	for _, p := range parents {
		out += fmt.Sprintf(" %d->%v", p, edges[p])
	}
	return out
}

func permutations(in []Folder) [][]Folder {
	if len(in) <= 1 {
		return [][]Folder{append([]Folder(nil), in...)}
	}
	var out [][]Folder
	for i := range in {
		rest := make([]Folder, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Folder{in[i]}, p...))
		}
	}
	return out
}

func TestBuildTree_Nesting(t *testing.T) {
	roots := BuildTree([]Folder{
		folder(3, ID(2)),
		folder(1, nil),
		folder(2, ID(1)),
		folder(4, nil),
	})

	require.Len(t, roots, 2)
	assert.Equal(t, int64(1), roots[0].ID)
	assert.Equal(t, int64(4), roots[1].ID)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, int64(2), roots[0].Children[0].ID)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, int64(3), roots[0].Children[0].Children[0].ID)
	assert.Empty(t, roots[1].Children)
}

func TestBuildTree_ChildrenKeepDiscoveryOrder(t *testing.T) {
	roots := BuildTree([]Folder{
		folder(9, ID(1)),
		folder(1, nil),
		folder(5, ID(1)),
		folder(7, ID(1)),
	})

	require.Len(t, roots, 1)
	var ids []int64
	for _, c := range roots[0].Children {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int64{9, 5, 7}, ids)
}

func TestBuildTree_DanglingParentBecomesRoot(t *testing.T) {
	roots := BuildTree([]Folder{folder(5, ID(999))})

	require.Len(t, roots, 1)
	assert.Equal(t, int64(5), roots[0].ID)
}

func TestBuildTree_Empty(t *testing.T) {
	roots := BuildTree(nil)
	assert.NotNil(t, roots)
	assert.Empty(t, roots)
}

func TestBuildTree_IdempotentAcrossPermutations(t *testing.T) {
	input := []Folder{
		folder(1, nil),
		folder(2, ID(1)),
		folder(3, ID(2)),
		folder(4, ID(999)),
		folder(5, ID(1)),
	}
	want := shape(BuildTree(input))
	assert.Equal(t, shape(BuildTree(input)), want)

	for _, p := range permutations(input) {
		assert.Equal(t, want, shape(BuildTree(p)))
	}
}

func TestBuildTree_CycleIsBrokenAtLowestID(t *testing.T) {
	input := []Folder{folder(1, ID(2)), folder(2, ID(1))}

	for _, p := range permutations(input) {
		roots := BuildTree(p)
		require.Len(t, roots, 1)
		assert.Equal(t, int64(1), roots[0].ID)
		require.Len(t, roots[0].Children, 1)
		assert.Equal(t, int64(2), roots[0].Children[0].ID)
		assert.Empty(t, roots[0].Children[0].Children)
	}
}

func TestBuildTree_SelfParentAndTailIntoCycle(t *testing.T) {
	input := []Folder{
		folder(7, ID(7)),
		folder(10, ID(11)),
		folder(11, ID(12)),
		folder(12, ID(10)),
		folder(20, ID(11)),
	}
	want := "[7 10] 10->[12] 11->[20] 12->[11]"
	for _, p := range permutations(input) {
		assert.Equal(t, want, shape(BuildTree(p)))
	}
}

func TestBuildTree_EveryFolderAppearsOnce(t *testing.T) {
	input := []Folder{
		folder(1, ID(3)),
		folder(2, ID(1)),
		folder(3, ID(2)),
		folder(4, ID(4)),
		folder(5, nil),
		folder(5, ID(1)),
	}
	count := 0
	Walk(BuildTree(input), func(*HierarchicalFolder, int) bool {
		count++
		return true
	})
	assert.Equal(t, 5, count)
}

func TestWouldCycle(t *testing.T) {
	folders := []Folder{
		folder(1, nil),
		folder(2, ID(1)),
		folder(3, ID(2)),
		folder(4, nil),
	}

	tests := []struct {
		name   string
		id     int64
		parent *int64
		want   bool
	}{
		{"to root", 1, nil, false},
		{"self", 1, ID(1), true},
		{"into child", 1, ID(2), true},
		{"into grandchild", 1, ID(3), true},
		{"sibling tree", 1, ID(4), false},
		{"up the chain", 3, ID(1), false},
		{"unknown parent", 1, ID(42), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WouldCycle(folders, tt.id, tt.parent))
		})
	}
}

func TestWouldCycle_ExistingLoopTerminates(t *testing.T) {
	folders := []Folder{folder(1, ID(2)), folder(2, ID(1)), folder(3, nil)}
	assert.False(t, WouldCycle(folders, 3, ID(1)))
}

func TestCountNotes(t *testing.T) {
	counts := CountNotes([]Note{
		{ID: 1},
		{ID: 2, FolderID: ID(1)},
		{ID: 3},
	})

	assert.Equal(t, 2, counts.Unfiled)
	assert.Equal(t, 1, counts.Folder(1))
	assert.Equal(t, 0, counts.Folder(2))
}

func TestNoteInput_CopiesMutableFields(t *testing.T) {
	n := Note{ID: 1, Title: "T", Content: "C", Tags: []string{"x"}, Color: "#fff", FolderID: ID(2)}
	in := n.Input()
	in.Tags[0] = "y"
	*in.FolderID = 3

	assert.Equal(t, []string{"x"}, n.Tags)
	assert.Equal(t, int64(2), *n.FolderID)
}
