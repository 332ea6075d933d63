package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	exportFilename    = "sentiment_analysis.csv"
	exportContentType = "text/csv; charset=utf-8"
)

func (s *Server) handleExportCSV(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	data, err := s.app.ExportCSV(c.Request().Context(), userID)
	if err != nil {
		return toAppError(err, "failed to export sentiments")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exportFilename))
	if err := c.Blob(http.StatusOK, exportContentType, data); err != nil {
		return fmt.Errorf("failed to send export: %w", err)
	}
	return nil
}

func (s *Server) handleExportArchive(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	link, err := s.app.ArchiveExport(c.Request().Context(), userID)
	if err != nil {
		return toAppError(err, "failed to archive export")
	}

	if err := c.JSON(http.StatusOK, map[string]string{"url": link}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
