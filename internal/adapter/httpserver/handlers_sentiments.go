package httpserver

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pscheid92/textpulse/internal/app"
	"github.com/pscheid92/textpulse/internal/domain"
	apperrors "github.com/pscheid92/textpulse/internal/platform/errors"
)

const (
	defaultTrendDays    = 7
	defaultKeywordLimit = 20
)

// intQuery parses the query parameter name, returning fallback when it is
// absent. Values outside [lo, hi] are rejected.
func intQuery(c echo.Context, name string, fallback, lo, hi int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.ValidationError(name + " must be an integer").WithField(name, raw)
	}
	if v < lo || v > hi {
		return 0, apperrors.ValidationError(fmt.Sprintf("%s must be between %d and %d", name, lo, hi)).WithField(name, v)
	}
	return v, nil
}

func (s *Server) handleListSentiments(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	query := domain.ListQuery{}
	if raw := c.QueryParam("sentiment"); raw != "" {
		label, ok := domain.ParseSentiment(raw)
		if !ok {
			return apperrors.ValidationError("sentiment must be one of positive, negative, neutral").WithField("sentiment", raw)
		}
		query.Sentiment = label
	}
	if query.Limit, err = intQuery(c, "limit", app.DefaultListLimit, 1, app.MaxListLimit); err != nil {
		return err
	}
	if query.Skip, err = intQuery(c, "skip", 0, 0, math.MaxInt32); err != nil {
		return err
	}

	records, err := s.app.ListRecords(c.Request().Context(), userID, query)
	if err != nil {
		return toAppError(err, "failed to list sentiments")
	}

	if err := c.JSON(http.StatusOK, records); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleStats(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	stats, err := s.app.Stats(c.Request().Context(), userID)
	if err != nil {
		return toAppError(err, "failed to compute stats")
	}

	if err := c.JSON(http.StatusOK, stats); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleTrends(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	days, err := intQuery(c, "days", defaultTrendDays, 1, app.MaxTrendDays)
	if err != nil {
		return err
	}

	trends, err := s.app.Trends(c.Request().Context(), userID, days)
	if err != nil {
		return toAppError(err, "failed to compute trends")
	}

	if err := c.JSON(http.StatusOK, trends); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleKeywords(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	limit, err := intQuery(c, "limit", defaultKeywordLimit, 1, app.MaxKeywordLimit)
	if err != nil {
		return err
	}

	keywords, err := s.app.Keywords(c.Request().Context(), userID, limit)
	if err != nil {
		return toAppError(err, "failed to compute keywords")
	}

	if err := c.JSON(http.StatusOK, keywords); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDeleteSentiment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	rawID := c.Param("id")
	id, err := uuid.Parse(rawID)
	if err != nil {
		return apperrors.ValidationError("invalid sentiment ID").WithField("id", rawID)
	}

	if err := s.app.DeleteRecord(c.Request().Context(), userID, id); err != nil {
		return toAppError(err, "failed to delete sentiment").WithField("id", id.String())
	}

	if err := c.JSON(http.StatusOK, map[string]string{"message": "Sentiment deleted successfully"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
