package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hvila/tablero/internal/logger"
)

// handleUploadLogo stores one uploaded file and returns its public URL.
// Multi-file uploads are driven file-by-file from the client so a failed
// file reports by name without rolling back the ones that made it.
func (s *Server) handleUploadLogo(c echo.Context) error {
	if s.opts.StorageDir == "" {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "file storage not configured"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file required"})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable file"})
	}
	defer func() {
		_ = src.Close()
	}()

	// Prefix with a random id so distinct uploads of the same filename
	// never collide.
	name := uuid.NewString()[:8] + "-" + sanitizeName(fh.Filename)
	if err := os.MkdirAll(s.opts.StorageDir, 0755); err != nil {
		logger.Error("storage dir error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	dst, err := os.Create(filepath.Join(s.opts.StorageDir, name))
	if err != nil {
		logger.Error("storage create error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer func() {
		_ = dst.Close()
	}()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		logger.Error("storage write error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	base := s.opts.PublicURL
	if base == "" {
		base = "http://" + c.Request().Host
	}
	url := fmt.Sprintf("%s/files/%s", strings.TrimSuffix(base, "/"), name)

	logger.Info("Logo uploaded", logger.F("name", name), logger.F("size", fh.Size))
	return c.JSON(http.StatusOK, map[string]string{"name": name, "url": url})
}

// handleRemoveLogo deletes a stored file by name
func (s *Server) handleRemoveLogo(c echo.Context) error {
	if s.opts.StorageDir == "" {
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": "file storage not configured"})
	}

	name := sanitizeName(c.Param("name"))
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name required"})
	}

	path := filepath.Join(s.opts.StorageDir, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "file not found"})
		}
		logger.Error("storage remove error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	logger.Info("Logo removed", logger.F("name", name))
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// sanitizeName strips path separators so uploads cannot escape the
// storage directory.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
