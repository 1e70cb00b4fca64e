package handlers

import (
	"lessonfolders/internal/app"
	foldersController "lessonfolders/internal/controllers/folders"
	"lessonfolders/internal/logger"
	"lessonfolders/internal/types"

	"github.com/gofiber/fiber/v2"
)

type FolderHandler struct {
	Handler
	foldersController foldersController.FoldersControllerInterface
}

func NewFolderHandler(app app.App, router fiber.Router) *FolderHandler {
	log := logger.New("handlers").File("folder_handler")
	return &FolderHandler{
		foldersController: app.Controllers.Folders,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *FolderHandler) Register() {
	folders := h.router.Group("/folders", h.middleware.RequireAuth())

	folders.Get("", h.listFolders)
	folders.Post("", h.createFolder)
	folders.Delete("", h.bulkDeleteFolders)
	folders.Get("/:id", h.getFolder)
	folders.Patch("/:id/name", h.renameFolder)
	folders.Patch("/:id/move", h.moveFolder)
	folders.Patch("/:id/order", h.reorderFolder)
	folders.Post("/:id/archive", h.archiveFolder)
	folders.Post("/:id/restore", h.restoreFolder)
	folders.Delete("/:id", h.deleteFolder)
	folders.Get("/:id/materials", h.listFolderMaterials)
	folders.Put("/:id/materials/:materialId", h.linkLessonMaterial)
	folders.Delete("/:id/materials/:materialId", h.unlinkLessonMaterial)
}

func (h *FolderHandler) invalidBody(c *fiber.Ctx, err error) error {
	h.log.Function("invalidBody").Warn("Invalid request body", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
		"kind":  types.KindValidationFailed,
	})
}

func (h *FolderHandler) listFolders(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	classID, err := h.uuidQuery(c, "classId")
	if err != nil {
		return h.respondError(c, err)
	}
	ownerID, err := h.uuidQuery(c, "ownerId")
	if err != nil {
		return h.respondError(c, err)
	}

	folders, err := h.foldersController.ListFolders(c.UserContext(), userID, foldersController.ListFoldersRequest{
		ClassID: classID,
		OwnerID: ownerID,
		Status:  c.Query("status"),
	})
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"folders": folders})
}

func (h *FolderHandler) createFolder(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	var req foldersController.CreateFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return h.invalidBody(c, err)
	}

	folder, err := h.foldersController.CreateFolder(c.UserContext(), userID, &req)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"folder": folder})
}

func (h *FolderHandler) bulkDeleteFolders(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	var req foldersController.BulkDeleteFoldersRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return h.invalidBody(c, err)
		}
	}

	deleted, err := h.foldersController.BulkDeletePersonalFolders(c.UserContext(), userID, &req)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"deleted": deleted})
}

func (h *FolderHandler) getFolder(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	folderID, err := h.uuidParam(c, "id")
	if err != nil {
		return h.respondError(c, err)
	}

	folder, err := h.foldersController.GetFolder(c.UserContext(), userID, folderID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"folder": folder})
}

func (h *FolderHandler) renameFolder(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	folderID, err := h.uuidParam(c, "id")
	if err != nil {
		return h.respondError(c, err)
	}

	var req foldersController.RenameFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return h.invalidBody(c, err)
	}

	folder, err := h.foldersController.RenameFolder(c.UserContext(), userID, folderID, &req)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"folder": folder})
}

func (h *FolderHandler) moveFolder(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	folderID, err := h.uuidParam(c, "id")
	if err != nil {
		return h.respondError(c, err)
	}

	var req foldersController.MoveFolderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return h.invalidBody(c, err)
		}
	}

	folder, err := h.foldersController.MoveFolder(c.UserContext(), userID, folderID, &req)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"folder": folder})
}

func (h *FolderHandler) reorderFolder(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	folderID, err := h.uuidParam(c, "id")
	if err != nil {
		return h.respondError(c, err)
	}

	var req foldersController.ReorderFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return h.invalidBody(c, err)
	}

	if err := h.foldersController.ReorderFolder(c.UserContext(), userID, folderID, &req); err != nil {
		return h.respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FolderHandler) archiveFolder(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	folderID, err := h.uuidParam(c, "id")
	if err != nil {
		return h.respondError(c, err)
	}

	if err := h.foldersController.ArchiveFolder(c.UserContext(), userID, folderID); err != nil {
		return h.respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FolderHandler) restoreFolder(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	folderID, err := h.uuidParam(c, "id")
	if err != nil {
		return h.respondError(c, err)
	}

	folder, err := h.foldersController.RestoreFolder(c.UserContext(), userID, folderID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"folder": folder})
}

func (h *FolderHandler) deleteFolder(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	folderID, err := h.uuidParam(c, "id")
	if err != nil {
		return h.respondError(c, err)
	}

	deleted, err := h.foldersController.DeleteFolder(c.UserContext(), userID, folderID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"deleted": deleted})
}

func (h *FolderHandler) listFolderMaterials(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	folderID, err := h.uuidParam(c, "id")
	if err != nil {
		return h.respondError(c, err)
	}

	materials, err := h.foldersController.ListFolderMaterials(c.UserContext(), userID, folderID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"materials": materials})
}

func (h *FolderHandler) linkLessonMaterial(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	folderID, err := h.uuidParam(c, "id")
	if err != nil {
		return h.respondError(c, err)
	}
	materialID, err := h.uuidParam(c, "materialId")
	if err != nil {
		return h.respondError(c, err)
	}

	created, err := h.foldersController.LinkLessonMaterial(c.UserContext(), userID, folderID, materialID)
	if err != nil {
		return h.respondError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"linked": created})
}

func (h *FolderHandler) unlinkLessonMaterial(c *fiber.Ctx) error {
	userID, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	folderID, err := h.uuidParam(c, "id")
	if err != nil {
		return h.respondError(c, err)
	}
	materialID, err := h.uuidParam(c, "materialId")
	if err != nil {
		return h.respondError(c, err)
	}

	if err := h.foldersController.UnlinkLessonMaterial(c.UserContext(), userID, folderID, materialID); err != nil {
		return h.respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
