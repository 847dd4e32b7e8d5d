package controller

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"skilllink/config"
	"skilllink/utils"
)

const maxUploadSize = 10 << 20 // 10 MB

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// UploadImage accepts a single image upload.
func UploadImage(c *fiber.Ctx) error {
	return handleUpload(c, true)
}

// UploadFile accepts any single file upload.
func UploadFile(c *fiber.Ctx) error {
	return handleUpload(c, false)
}

func handleUpload(c *fiber.Ctx, imageOnly bool) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}
	if fileHeader.Size > maxUploadSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File exceeds the 10 MB limit",
		})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if imageOnly {
		if _, ok := allowedImageTypes[contentType]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Only image uploads are allowed",
			})
		}
	}

	if err := os.MkdirAll(config.AppConfig.UploadDir, 0o755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to prepare upload directory",
		})
	}

	name, err := randomFilename(fileHeader.Filename)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store file",
		})
	}
	dest := filepath.Join(config.AppConfig.UploadDir, name)
	if err := c.SaveFile(fileHeader, dest); err != nil {
		utils.LogError("upload_save", err, map[string]interface{}{"filename": name})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store file",
		})
	}

	url := "/uploads/" + name
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"file": fiber.Map{
			"filename":    name,
			"mimetype":    contentType,
			"size":        fileHeader.Size,
			"url":         url,
			"absoluteUrl": c.BaseURL() + url,
		},
	})
}

// randomFilename keeps the original extension but replaces the name with a
// random hex string so uploads never collide or traverse paths.
func randomFilename(original string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(original))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("%s%s", hex.EncodeToString(buf), ext), nil
}
