// http/folders.go
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vinizap/lumi-notes/domain"
	"github.com/vinizap/lumi-notes/events"
)

func (s *Server) HandleListFolders(c *fiber.Ctx) error {
	parentID, err := queryID(c, "parent_id")
	if err != nil {
		return err
	}

	folders, err := s.store.ListFolders(c.UserContext(), parentID)
	if err != nil {
		return err
	}
	return c.JSON(folders)
}

func (s *Server) HandleGetFolder(c *fiber.Ctx) error {
	id, err := pathID(c, "folder")
	if err != nil {
		return err
	}

	folder, err := s.store.GetFolder(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(folder)
}

func (s *Server) HandleFolderChildren(c *fiber.Ctx) error {
	id, err := pathID(c, "folder")
	if err != nil {
		return err
	}

	children, err := s.store.ListChildren(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(children)
}

func (s *Server) HandleCreateFolder(c *fiber.Ctx) error {
	var in domain.FolderInput
	if err := s.decode(c, &in); err != nil {
		return err
	}

	folder, err := s.store.CreateFolder(c.UserContext(), in)
	if err != nil {
		return err
	}

	s.log.Info().Int64("folder_id", folder.ID).Msg("folder created")
	if s.hub != nil {
		s.hub.FolderChanged(events.FolderCreated, folder)
	}
	return c.Status(fiber.StatusCreated).JSON(folder)
}

func (s *Server) HandleUpdateFolder(c *fiber.Ctx) error {
	id, err := pathID(c, "folder")
	if err != nil {
		return err
	}
	var in domain.FolderInput
	if err := s.decode(c, &in); err != nil {
		return err
	}

	folder, err := s.store.UpdateFolder(c.UserContext(), id, in)
	if err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.FolderChanged(events.FolderUpdated, folder)
	}
	return c.JSON(folder)
}

// HandleDeleteFolder deletes the folder only; its notes become unfiled and
// its subfolders move to the root.
func (s *Server) HandleDeleteFolder(c *fiber.Ctx) error {
	id, err := pathID(c, "folder")
	if err != nil {
		return err
	}

	if err := s.store.DeleteFolder(c.UserContext(), id); err != nil {
		return err
	}

	s.log.Info().Int64("folder_id", id).Msg("folder deleted")
	if s.hub != nil {
		s.hub.Deleted(events.FolderDeleted, id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
