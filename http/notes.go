// http/notes.go
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vinizap/lumi-notes/domain"
	"github.com/vinizap/lumi-notes/events"
)

func (s *Server) HandleListNotes(c *fiber.Ctx) error {
	folderID, err := queryID(c, "folder_id")
	if err != nil {
		return err
	}

	notes, err := s.store.ListNotes(c.UserContext(), folderID)
	if err != nil {
		return err
	}
	return c.JSON(notes)
}

func (s *Server) HandleGetNote(c *fiber.Ctx) error {
	id, err := pathID(c, "note")
	if err != nil {
		return err
	}

	note, err := s.store.GetNote(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(note)
}

func (s *Server) HandleCreateNote(c *fiber.Ctx) error {
	var in domain.NoteInput
	if err := s.decode(c, &in); err != nil {
		return err
	}

	note, err := s.store.CreateNote(c.UserContext(), in)
	if err != nil {
		return err
	}

	s.log.Info().Int64("note_id", note.ID).Msg("note created")
	if s.hub != nil {
		s.hub.NoteChanged(events.NoteCreated, note)
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

// HandleUpdateNote replaces the whole note; the body is a full record.
func (s *Server) HandleUpdateNote(c *fiber.Ctx) error {
	id, err := pathID(c, "note")
	if err != nil {
		return err
	}
	var in domain.NoteInput
	if err := s.decode(c, &in); err != nil {
		return err
	}

	note, err := s.store.UpdateNote(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.NoteChanged(events.NoteUpdated, note)
	}
	return c.JSON(note)
}

func (s *Server) HandleDeleteNote(c *fiber.Ctx) error {
	id, err := pathID(c, "note")
	if err != nil {
		return err
	}

	if err := s.store.DeleteNote(c.UserContext(), id); err != nil {
		return err
	}

	s.log.Info().Int64("note_id", id).Msg("note deleted")
	if s.hub != nil {
		s.hub.Deleted(events.NoteDeleted, id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
