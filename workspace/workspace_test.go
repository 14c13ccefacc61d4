// workspace/workspace_test.go
package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinizap/lumi-notes/apperr"
	"github.com/vinizap/lumi-notes/client"
	"github.com/vinizap/lumi-notes/domain"
)

type call struct {
	Op     string
	ID     int64
	Note   domain.NoteInput
	Folder domain.FolderInput
}

type fakeRemote struct {
	mu      sync.Mutex
	notes   []domain.Note
	folders []domain.Folder
	calls   []call
	fail    map[string]error
}

func newFakeRemote(notes []domain.Note, folders []domain.Folder) *fakeRemote {
	return &fakeRemote{notes: notes, folders: folders, fail: map[string]error{}}
}

func (f *fakeRemote) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.fail[c.Op]
}

func (f *fakeRemote) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Op
	}
	return out
}

func (f *fakeRemote) reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func (f *fakeRemote) ListNotes(context.Context) ([]domain.Note, error) {
	if err := f.record(call{Op: "ListNotes"}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Note(nil), f.notes...), nil
}

func (f *fakeRemote) CreateNote(_ context.Context, in domain.NoteInput) (domain.Note, error) {
	if err := f.record(call{Op: "CreateNote", Note: in}); err != nil {
		return domain.Note{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := domain.Note{ID: int64(len(f.notes) + 100), Title: in.Title, Content: in.Content, Tags: in.Tags, Color: in.Color, FolderID: in.FolderID}
	f.notes = append(f.notes, n)
	return n, nil
}

func (f *fakeRemote) UpdateNote(_ context.Context, id int64, in domain.NoteInput) (domain.Note, error) {
	if err := f.record(call{Op: "UpdateNote", ID: id, Note: in}); err != nil {
		return domain.Note{}, err
	}
	return domain.Note{ID: id, Title: in.Title, Content: in.Content, Tags: in.Tags, Color: in.Color, FolderID: in.FolderID}, nil
}

func (f *fakeRemote) DeleteNote(_ context.Context, id int64) error {
	if err := f.record(call{Op: "DeleteNote", ID: id}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.notes[:0]
	for _, n := range f.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	f.notes = kept
	return nil
}

func (f *fakeRemote) ListFolders(context.Context) ([]domain.Folder, error) {
	if err := f.record(call{Op: "ListFolders"}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Folder(nil), f.folders...), nil
}

func (f *fakeRemote) CreateFolder(_ context.Context, in domain.FolderInput) (domain.Folder, error) {
	if err := f.record(call{Op: "CreateFolder", Folder: in}); err != nil {
		return domain.Folder{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fo := domain.Folder{ID: int64(len(f.folders) + 100), Name: in.Name, ParentID: in.ParentID}
	f.folders = append(f.folders, fo)
	return fo, nil
}

func (f *fakeRemote) UpdateFolder(_ context.Context, id int64, in domain.FolderInput) (domain.Folder, error) {
	if err := f.record(call{Op: "UpdateFolder", ID: id, Folder: in}); err != nil {
		return domain.Folder{}, err
	}
	return domain.Folder{ID: id, Name: in.Name, ParentID: in.ParentID}, nil
}

func (f *fakeRemote) DeleteFolder(_ context.Context, id int64) error {
	if err := f.record(call{Op: "DeleteFolder", ID: id}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []domain.Folder
	for _, fo := range f.folders {
		if fo.ID != id {
			kept = append(kept, fo)
		}
	}
	f.folders = kept
	for i := range f.notes {
		if f.notes[i].InFolder(&id) {
			f.notes[i].FolderID = nil
		}
	}
	return nil
}

type memPins struct {
	ids     []int64
	saveErr error
	saves   int
}

func (m *memPins) Load() ([]int64, error) { return m.ids, nil }

func (m *memPins) Save(ids []int64) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.ids = append([]int64(nil), ids...)
	return nil
}

var remoteDown = &client.Error{Message: "boom", Status: 500}

func sampleData() ([]domain.Note, []domain.Folder) {
	folders := []domain.Folder{
		{ID: 1, Name: "Work"},
		{ID: 2, Name: "Projects", ParentID: domain.ID(1)},
		{ID: 3, Name: "Personal"},
	}
	notes := []domain.Note{
		{ID: 1, Title: "T", Content: "C", Tags: []string{"x"}, Color: "#fff", FolderID: domain.ID(2)},
		{ID: 2, Title: "Loose", Content: "unfiled note"},
		{ID: 3, Title: "Plan", Tags: []string{"y"}, FolderID: domain.ID(1)},
	}
	return notes, folders
}

func loaded(t *testing.T) (*Workspace, *fakeRemote, *memPins) {
	t.Helper()
	notes, folders := sampleData()
	remote := newFakeRemote(notes, folders)
	pins := &memPins{ids: []int64{3}}
	w := New(remote, pins, zerolog.Nop())
	r := w.Load(context.Background())
	require.True(t, r.OK, r.Message)
	remote.reset()
	return w, remote, pins
}

func TestLoad(t *testing.T) {
	w, _, _ := loaded(t)

	s := w.State()
	assert.Len(t, s.Notes, 3)
	assert.Len(t, s.Folders, 3)
	assert.True(t, s.Pinned[3])
}

func TestLoad_FetchFailure(t *testing.T) {
	remote := newFakeRemote(nil, nil)
	remote.fail["ListFolders"] = remoteDown
	w := New(remote, nil, zerolog.Nop())

	r := w.Load(context.Background())
	assert.False(t, r.OK)
	assert.Equal(t, client.MsgFetchFolders, r.Message)
	assert.ErrorIs(t, r.Err, remoteDown)
}

func TestMove_NoOpOnSameFolder(t *testing.T) {
	w, remote, _ := loaded(t)
	before := w.State()

	r := w.Move(context.Background(), 1, IntoFolder(2))
	assert.True(t, r.OK)
	assert.False(t, r.Changed)
	assert.Empty(t, remote.ops(), "no request for a no-op move")
	assert.Equal(t, before, w.State())

	r = w.Move(context.Background(), 2, Unfiled())
	assert.True(t, r.OK)
	assert.False(t, r.Changed)
	assert.Empty(t, remote.ops())
}

func TestMove_SendsFullRecordWithOnlyFolderChanged(t *testing.T) {
	w, remote, _ := loaded(t)

	r := w.Move(context.Background(), 1, IntoFolder(3))
	require.True(t, r.OK, r.Message)
	assert.True(t, r.Changed)
	assert.Equal(t, `Moved "T" to Personal`, r.Message)

	require.Len(t, remote.calls, 1)
	c := remote.calls[0]
	assert.Equal(t, "UpdateNote", c.Op)
	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, domain.NoteInput{Title: "T", Content: "C", Tags: []string{"x"}, Color: "#fff", FolderID: domain.ID(3)}, c.Note)

	note, ok := w.State().Note(1)
	require.True(t, ok)
	assert.Equal(t, int64(3), *note.FolderID, "applied locally without a refetch")
}

func TestMove_ToUnfiled(t *testing.T) {
	w, remote, _ := loaded(t)

	r := w.Move(context.Background(), 3, Unfiled())
	require.True(t, r.OK)
	assert.Equal(t, `Moved "Plan" to Unfiled`, r.Message)
	require.Len(t, remote.calls, 1)
	assert.Nil(t, remote.calls[0].Note.FolderID)

	note, _ := w.State().Note(3)
	assert.Nil(t, note.FolderID)
}

func TestMove_FailureLeavesStateUntouched(t *testing.T) {
	w, remote, _ := loaded(t)
	remote.fail["UpdateNote"] = remoteDown
	before := w.State()

	r := w.Move(context.Background(), 1, IntoFolder(3))
	assert.False(t, r.OK)
	assert.Equal(t, "Failed to update note", r.Message)
	assert.Error(t, r.Err)

	note, _ := w.State().Note(1)
	assert.Equal(t, int64(2), *note.FolderID)
	assert.Equal(t, before, w.State())
}

func TestMove_UnknownFolderOrNote(t *testing.T) {
	w, remote, _ := loaded(t)

	r := w.Move(context.Background(), 1, IntoFolder(99))
	assert.False(t, r.OK)
	assert.True(t, errors.Is(r.Err, apperr.ErrValidation))

	r = w.Move(context.Background(), 42, Unfiled())
	assert.False(t, r.OK)
	assert.True(t, errors.Is(r.Err, apperr.ErrNotFound))

	assert.Empty(t, remote.ops())
}

func TestDragAndDrop(t *testing.T) {
	w, remote, _ := loaded(t)

	require.True(t, w.BeginDrag(2).OK)
	assert.Equal(t, int64(2), *w.State().Dragging)

	target, err := ParseTarget("folder-1")
	require.NoError(t, err)
	r := w.Drop(context.Background(), target)
	require.True(t, r.OK)
	assert.Equal(t, `Moved "Loose" to Work`, r.Message)
	assert.Nil(t, w.State().Dragging)
	assert.Equal(t, []string{"UpdateNote"}, remote.ops())

	r = w.Drop(context.Background(), Unfiled())
	assert.False(t, r.OK, "nothing is being dragged")
}

func TestCancelDrag(t *testing.T) {
	w, remote, _ := loaded(t)

	require.True(t, w.BeginDrag(1).OK)
	w.CancelDrag()
	assert.Nil(t, w.State().Dragging)
	assert.False(t, w.BeginDrag(404).OK)
	assert.Nil(t, w.State().Dragging)
	assert.Empty(t, remote.ops())
}

func TestCreateNote(t *testing.T) {
	w, remote, _ := loaded(t)

	r := w.CreateNote(context.Background(), domain.NoteInput{Title: "New"})
	require.True(t, r.OK, r.Message)
	assert.Equal(t, "Note added", r.Message)
	assert.Equal(t, []string{"CreateNote", "ListNotes"}, remote.ops(), "refetch after mutation")
	assert.Len(t, w.State().Notes, 4)
}

func TestCreateNote_InvalidIsNotSubmitted(t *testing.T) {
	w, remote, _ := loaded(t)

	r := w.CreateNote(context.Background(), domain.NoteInput{Title: "  "})
	assert.False(t, r.OK)
	assert.Equal(t, "title is required", r.Message)
	assert.True(t, errors.Is(r.Err, apperr.ErrValidation))

	r = w.CreateNote(context.Background(), domain.NoteInput{Title: "x", FolderID: domain.ID(77)})
	assert.False(t, r.OK)

	assert.Empty(t, remote.ops())
}

func TestOperationFailureMessages(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		op  string
		run func(w *Workspace) Result
		msg string
	}{
		{"CreateNote", func(w *Workspace) Result { return w.CreateNote(ctx, domain.NoteInput{Title: "a"}) }, "Failed to add note"},
		{"UpdateNote", func(w *Workspace) Result { return w.UpdateNote(ctx, 1, domain.NoteInput{Title: "a"}) }, "Failed to update note"},
		{"DeleteNote", func(w *Workspace) Result { return w.DeleteNote(ctx, 1) }, "Failed to delete note"},
		{"CreateFolder", func(w *Workspace) Result { return w.CreateFolder(ctx, domain.FolderInput{Name: "a"}) }, "Failed to create folder"},
		{"UpdateFolder", func(w *Workspace) Result { return w.UpdateFolder(ctx, 1, domain.FolderInput{Name: "a"}) }, "Failed to update folder"},
		{"DeleteFolder", func(w *Workspace) Result { return w.DeleteFolder(ctx, 1) }, "Failed to delete folder"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			w, remote, _ := loaded(t)
			remote.fail[tt.op] = remoteDown
			before := w.State()

			r := tt.run(w)
			assert.False(t, r.OK)
			assert.False(t, r.Changed)
			assert.Equal(t, tt.msg, r.Message)
			assert.Equal(t, []string{tt.op}, remote.ops(), "one request, no retry, no refetch")
			assert.Equal(t, before, w.State())
		})
	}
}

func TestRefetchFailureAfterMutation(t *testing.T) {
	w, remote, _ := loaded(t)
	remote.fail["ListNotes"] = remoteDown

	r := w.DeleteNote(context.Background(), 2)
	assert.False(t, r.OK)
	assert.True(t, r.Changed)
	assert.Equal(t, client.MsgFetchNotes, r.Message)
}

func TestDeleteFolder_RefetchesFoldersAndNotes(t *testing.T) {
	w, remote, _ := loaded(t)
	w.ToggleFolder(1)

	r := w.DeleteFolder(context.Background(), 1)
	require.True(t, r.OK, r.Message)
	assert.Equal(t, []string{"DeleteFolder", "ListFolders", "ListNotes"}, remote.ops())

	s := w.State()
	assert.Len(t, s.Folders, 2)
	note, _ := s.Note(3)
	assert.Nil(t, note.FolderID)
	assert.False(t, s.IsExpanded(1), "expansion of a deleted folder is dropped")
}

func TestUpdateFolder_RejectsCycles(t *testing.T) {
	w, remote, _ := loaded(t)

	r := w.UpdateFolder(context.Background(), 1, domain.FolderInput{Name: "Work", ParentID: domain.ID(2)})
	assert.False(t, r.OK)
	assert.Equal(t, "Folder cannot be moved into its own subfolder", r.Message)

	r = w.UpdateFolder(context.Background(), 1, domain.FolderInput{Name: "Work", ParentID: domain.ID(1)})
	assert.False(t, r.OK)
	assert.Equal(t, "Folder cannot be its own parent", r.Message)

	r = w.UpdateFolder(context.Background(), 1, domain.FolderInput{Name: ""})
	assert.False(t, r.OK)
	assert.Equal(t, "name is required", r.Message)

	assert.Empty(t, remote.ops())

	r = w.UpdateFolder(context.Background(), 2, domain.FolderInput{Name: "Projects", ParentID: domain.ID(3)})
	assert.True(t, r.OK, r.Message)
	assert.Equal(t, []string{"UpdateFolder", "ListFolders"}, remote.ops())
}

func TestTogglePin(t *testing.T) {
	w, remote, pins := loaded(t)

	r := w.TogglePin(1)
	require.True(t, r.OK)
	assert.Equal(t, "Note pinned", r.Message)
	assert.Equal(t, []int64{1, 3}, pins.ids)

	r = w.TogglePin(3)
	require.True(t, r.OK)
	assert.Equal(t, "Note unpinned", r.Message)
	assert.Equal(t, []int64{1}, pins.ids)
	assert.Equal(t, []int64{1}, w.State().PinnedIDs())
	assert.Empty(t, remote.ops(), "pins are client-local")
}

func TestTogglePin_SaveFailure(t *testing.T) {
	w, _, pins := loaded(t)
	pins.saveErr = errors.New("disk full")

	r := w.TogglePin(1)
	assert.False(t, r.OK)
	assert.False(t, w.State().Pinned[1])
}

func TestTogglePin_ConcurrentTogglesStayInSync(t *testing.T) {
	w, _, pins := loaded(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			w.TogglePin(id)
		}(int64(i%4 + 1))
	}
	wg.Wait()

	// five toggles each: notes 1, 2 and 4 end pinned, note 3 ends unpinned
	assert.Equal(t, []int64{1, 2, 4}, w.State().PinnedIDs())
	assert.Equal(t, w.State().PinnedIDs(), pins.ids)
	assert.Equal(t, 20, pins.saves)
}

func TestConcurrentMoves_LastResponseWins(t *testing.T) {
	w, _, _ := loaded(t)

	var wg sync.WaitGroup
	for _, target := range []Target{IntoFolder(1), IntoFolder(3), Unfiled()} {
		wg.Add(1)
		go func(target Target) {
			defer wg.Done()
			w.Move(context.Background(), 1, target)
		}(target)
	}
	wg.Wait()

	note, ok := w.State().Note(1)
	require.True(t, ok)
	assert.Equal(t, "T", note.Title, "only folder_id ever changes")
}
