// workspace/workspace.go
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vinizap/lumi-notes/apperr"
	"github.com/vinizap/lumi-notes/client"
	"github.com/vinizap/lumi-notes/domain"
	"github.com/vinizap/lumi-notes/validation"
)

// Remote is the REST surface the workspace syncs with.
type Remote interface {
	ListNotes(ctx context.Context) ([]domain.Note, error)
	CreateNote(ctx context.Context, in domain.NoteInput) (domain.Note, error)
	UpdateNote(ctx context.Context, id int64, in domain.NoteInput) (domain.Note, error)
	DeleteNote(ctx context.Context, id int64) error

	ListFolders(ctx context.Context) ([]domain.Folder, error)
	CreateFolder(ctx context.Context, in domain.FolderInput) (domain.Folder, error)
	UpdateFolder(ctx context.Context, id int64, in domain.FolderInput) (domain.Folder, error)
	DeleteFolder(ctx context.Context, id int64) error
}

// PinStore persists the pinned note ids locally.
type PinStore interface {
	Load() ([]int64, error)
	Save(ids []int64) error
}

const msgSavePins = "Failed to save pinned notes"

// Result is the outcome of a workspace operation. Changed reports whether
// server or local state was modified, which can be true even when OK is
// false (a mutation that succeeded but whose refetch failed).
type Result struct {
	OK      bool
	Changed bool
	Message string
	Err     error
}

func success(changed bool, msg string) Result {
	return Result{OK: true, Changed: changed, Message: msg}
}

func failure(msg string, err error) Result {
	return Result{Message: msg, Err: err}
}

// Workspace is the client state container. The mutex guards state only and
// is never held across a remote call, so concurrent operations resolve in
// response order.
type Workspace struct {
	mu       sync.Mutex
	state    State
	remote   Remote
	pins     PinStore
	validate *validation.Validator
	log      zerolog.Logger
}

func New(remote Remote, pins PinStore, log zerolog.Logger) *Workspace {
	return &Workspace{
		state:    NewState(),
		remote:   remote,
		pins:     pins,
		validate: validation.New(),
		log:      log,
	}
}

// State returns a snapshot that is safe to keep.
func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Clone()
}

func (w *Workspace) apply(fn func(State) State) {
	w.mu.Lock()
	w.state = fn(w.state)
	w.mu.Unlock()
}

func (w *Workspace) Render() []Row {
	return w.State().Render()
}

// Load reads the pin set and fetches both collections.
func (w *Workspace) Load(ctx context.Context) Result {
	if w.pins != nil {
		ids, err := w.pins.Load()
		if err != nil {
			w.log.Warn().Err(err).Msg("pinned notes unavailable")
		} else {
			w.apply(func(s State) State { return s.WithPinned(ids) })
		}
	}

	if r := w.refreshFolders(ctx); !r.OK {
		return r
	}
	if r := w.refreshNotes(ctx); !r.OK {
		return r
	}
	return success(true, "")
}

func (w *Workspace) refreshNotes(ctx context.Context) Result {
	notes, err := w.remote.ListNotes(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("fetch notes")
		return failure(client.MsgFetchNotes, err)
	}
	w.apply(func(s State) State { return s.WithNotes(notes) })
	return success(true, "")
}

func (w *Workspace) refreshFolders(ctx context.Context) Result {
	folders, err := w.remote.ListFolders(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("fetch folders")
		return failure(client.MsgFetchFolders, err)
	}
	w.apply(func(s State) State { return s.WithFolders(folders) })
	return success(true, "")
}

// mutated finishes a successful mutation: refetch, then report msg. A failed
// refetch is reported as such, with Changed still set.
func mutated(msg string, refetches ...func() Result) Result {
	for _, refetch := range refetches {
		if r := refetch(); !r.OK {
			r.Changed = true
			return r
		}
	}
	return success(true, msg)
}

func (w *Workspace) ToggleFolder(id int64) {
	w.apply(func(s State) State { return s.ToggleFolder(id) })
}

func (w *Workspace) ToggleUnfiled() {
	w.apply(State.ToggleUnfiled)
}

func (w *Workspace) SetSearch(q string) {
	w.apply(func(s State) State { return s.WithSearch(q) })
}

func (w *Workspace) SetTag(tag string) {
	w.apply(func(s State) State { return s.WithTag(tag) })
}

func (w *Workspace) Select(id *int64) {
	w.apply(func(s State) State { return s.Select(id) })
}

// TogglePin flips the pin and rewrites the whole pin set. The pin store is
// local, so the lock is held across the write and the saved set is always
// the one applied. The local state changes only after the write succeeds.
func (w *Workspace) TogglePin(noteID int64) Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := w.state.TogglePin(noteID)
	if w.pins != nil {
		if err := w.pins.Save(next.PinnedIDs()); err != nil {
			w.log.Error().Err(err).Int64("note_id", noteID).Msg("save pinned notes")
			return failure(msgSavePins, err)
		}
	}
	w.state = next
	if next.Pinned[noteID] {
		return success(true, "Note pinned")
	}
	return success(true, "Note unpinned")
}

// ExpandAll opens every folder and the unfiled section.
func (w *Workspace) ExpandAll() {
	w.apply(State.ExpandAll)
}

// BeginDrag records the dragged note.
func (w *Workspace) BeginDrag(noteID int64) Result {
	if _, ok := w.State().Note(noteID); !ok {
		return failure("Note not found", apperr.NotFound("Note not found"))
	}
	w.apply(func(s State) State { return s.BeginDrag(noteID) })
	return success(false, "")
}

func (w *Workspace) CancelDrag() {
	w.apply(State.CancelDrag)
}

// Drop moves the dragged note to target. The drag ends whatever the outcome.
func (w *Workspace) Drop(ctx context.Context, target Target) Result {
	w.mu.Lock()
	dragging := domain.CopyID(w.state.Dragging)
	w.state = w.state.CancelDrag()
	w.mu.Unlock()

	if dragging == nil {
		return failure("Nothing to drop", apperr.Validation("No note is being dragged"))
	}
	return w.Move(ctx, *dragging, target)
}

// Move reassigns a note to target. Moving onto the current folder sends
// nothing. Otherwise the full record is sent with only folder_id changed, and
// the local note is updated after the server accepts it.
func (w *Workspace) Move(ctx context.Context, noteID int64, target Target) Result {
	snap := w.State()
	note, ok := snap.Note(noteID)
	if !ok {
		return failure("Note not found", apperr.NotFound("Note not found"))
	}

	dest := target.FolderID()
	if note.InFolder(dest) {
		return success(false, "")
	}

	destName := "Unfiled"
	if dest != nil {
		folder, ok := snap.Folder(*dest)
		if !ok {
			return failure("Folder not found", apperr.Validation("Folder not found"))
		}
		destName = folder.Name
	}

	in := note.Input()
	in.FolderID = dest
	if _, err := w.remote.UpdateNote(ctx, noteID, in); err != nil {
		w.log.Error().Err(err).Int64("note_id", noteID).Str("target", target.String()).Msg("move note")
		return failure(client.MsgUpdateNote, err)
	}

	moved := note
	moved.FolderID = domain.CopyID(dest)
	w.apply(func(s State) State { return s.ReplaceNote(moved) })
	return success(true, fmt.Sprintf("Moved %q to %s", note.Title, destName))
}

func (w *Workspace) CreateNote(ctx context.Context, in domain.NoteInput) Result {
	if r, ok := w.checkInput(in); !ok {
		return r
	}
	if r, ok := w.checkFolder(in.FolderID); !ok {
		return r
	}
	if _, err := w.remote.CreateNote(ctx, in); err != nil {
		return failure(client.MsgAddNote, err)
	}
	return mutated("Note added", func() Result { return w.refreshNotes(ctx) })
}

// UpdateNote replaces the note with in.
func (w *Workspace) UpdateNote(ctx context.Context, id int64, in domain.NoteInput) Result {
	if r, ok := w.checkInput(in); !ok {
		return r
	}
	if _, err := w.remote.UpdateNote(ctx, id, in); err != nil {
		return failure(client.MsgUpdateNote, err)
	}
	return mutated("Note updated", func() Result { return w.refreshNotes(ctx) })
}

func (w *Workspace) DeleteNote(ctx context.Context, id int64) Result {
	if err := w.remote.DeleteNote(ctx, id); err != nil {
		return failure(client.MsgDeleteNote, err)
	}
	return mutated("Note deleted", func() Result { return w.refreshNotes(ctx) })
}

func (w *Workspace) CreateFolder(ctx context.Context, in domain.FolderInput) Result {
	if r, ok := w.checkInput(in); !ok {
		return r
	}
	if r, ok := w.checkFolder(in.ParentID); !ok {
		return r
	}
	if _, err := w.remote.CreateFolder(ctx, in); err != nil {
		return failure(client.MsgCreateFolder, err)
	}
	return mutated("Folder created", func() Result { return w.refreshFolders(ctx) })
}

// UpdateFolder refuses a parent that would make the folder its own ancestor.
func (w *Workspace) UpdateFolder(ctx context.Context, id int64, in domain.FolderInput) Result {
	if r, ok := w.checkInput(in); !ok {
		return r
	}
	if domain.WouldCycle(w.State().Folders, id, in.ParentID) {
		msg := "Folder cannot be moved into its own subfolder"
		if in.ParentID != nil && *in.ParentID == id {
			msg = "Folder cannot be its own parent"
		}
		return failure(msg, apperr.Validation(msg))
	}
	if _, err := w.remote.UpdateFolder(ctx, id, in); err != nil {
		return failure(client.MsgUpdateFolder, err)
	}
	return mutated("Folder updated", func() Result { return w.refreshFolders(ctx) })
}

// DeleteFolder refetches notes too, since the server unfiles the folder's notes.
func (w *Workspace) DeleteFolder(ctx context.Context, id int64) Result {
	if err := w.remote.DeleteFolder(ctx, id); err != nil {
		return failure(client.MsgDeleteFolder, err)
	}
	return mutated("Folder deleted",
		func() Result { return w.refreshFolders(ctx) },
		func() Result { return w.refreshNotes(ctx) },
	)
}

// checkInput runs the field rules locally so invalid input is never sent.
func (w *Workspace) checkInput(in any) (Result, bool) {
	err := w.validate.Validate(in)
	if err == nil {
		return Result{}, true
	}
	return failure(validationMessage(err), err), false
}

func (w *Workspace) checkFolder(id *int64) (Result, bool) {
	if id == nil {
		return Result{}, true
	}
	if _, ok := w.State().Folder(*id); !ok {
		return failure("Folder not found", apperr.Validation("Folder not found")), false
	}
	return Result{}, true
}

// validationMessage turns field details into "name is required; ..." text.
func validationMessage(err error) string {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	details, ok := appErr.Details.(map[string]string)
	if !ok || len(details) == 0 {
		return appErr.Message
	}
	fields := make([]string, 0, len(details))
	for field := range details {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + " " + details[field]
	}
	return strings.Join(parts, "; ")
}
