package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/pscheid92/textpulse/internal/platform/errors"
	"github.com/pscheid92/textpulse/internal/platform/version"
)

const (
	uploadField  = "file"
	csvExtension = ".csv"
)

type textRequest struct {
	Text string `json:"text"`
}

type batchResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func (s *Server) handleRoot(c echo.Context) error {
	response := map[string]string{
		"message": "Sentiment Analysis API",
		"version": version.API(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func bindText(c echo.Context) (string, error) {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return "", toAppError(err, "failed to read request body")
	}
	return req.Text, nil
}

func (s *Server) handleScore(c echo.Context) error {
	text, err := bindText(c)
	if err != nil {
		return err
	}

	analysis, err := s.app.ScoreText(text)
	if err != nil {
		return toAppError(err, "failed to score text")
	}

	if err := c.JSON(http.StatusOK, analysis); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleAnalyzeText(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	text, err := bindText(c)
	if err != nil {
		return err
	}

	record, err := s.app.IngestOne(c.Request().Context(), userID, text)
	if err != nil {
		return toAppError(err, "failed to analyze text")
	}

	if err := c.JSON(http.StatusOK, record); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleAnalyzeCSV(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	header, err := c.FormFile(uploadField)
	if err != nil {
		return apperrors.ValidationError("a CSV file is required").WithField("field", uploadField)
	}
	if !strings.HasSuffix(header.Filename, csvExtension) {
		return apperrors.ValidationError("Only CSV files are allowed").WithField("filename", header.Filename)
	}

	file, err := header.Open()
	if err != nil {
		return apperrors.InternalError("failed to open upload", err)
	}
	defer func() { _ = file.Close() }()

	result, err := s.app.IngestCSV(c.Request().Context(), userID, file)
	if err != nil {
		return toAppError(err, "failed to analyze CSV").WithField("filename", header.Filename)
	}

	response := batchResponse{
		Message: fmt.Sprintf("Analyzed %d texts", result.Accepted),
		Count:   result.Accepted,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
