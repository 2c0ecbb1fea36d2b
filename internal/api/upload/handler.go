// Package upload serves the artifact upload endpoint used to deploy model
// files next to the dashboard.
package upload

import (
	"log"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/hyacinth-monitor/internal/artifacts"
)

// FieldName is the multipart field carrying the file.
const FieldName = "file"

// RegisterRoutes wires POST /upload into the app.
func RegisterRoutes(app *fiber.App, store artifacts.Store) {
	app.Post("/upload", func(c *fiber.Ctx) error {
		file, err := c.FormFile(FieldName)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No file uploaded")
		}

		name := artifacts.BaseName(file.Filename)
		if _, err := artifacts.CleanKey(name); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid file name")
		}

		f, err := file.Open()
		if err != nil {
			log.Printf("ERROR: upload: open %s: %v", name, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to read uploaded file")
		}
		defer f.Close()

		contentType := "application/octet-stream"
		if mt, err := mimetype.DetectReader(f); err == nil {
			contentType = mt.String()
		}
		if _, err := f.Seek(0, 0); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to read uploaded file")
		}

		location, err := store.Put(c.UserContext(), name, f, file.Size, contentType)
		if err != nil {
			log.Printf("ERROR: upload: store %s: %v", name, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to save file")
		}

		log.Printf("INFO: upload: stored %s (%d bytes, %s)", name, file.Size, contentType)
		return c.JSON(fiber.Map{
			"message":  "File uploaded successfully",
			"filename": name,
			"location": location,
			"size":     file.Size,
		})
	})
}
