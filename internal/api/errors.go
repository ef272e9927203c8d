package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/GlucoRisk/internal/features"
	"github.com/Skufu/GlucoRisk/internal/input"
	"github.com/Skufu/GlucoRisk/internal/risk"
	"github.com/Skufu/GlucoRisk/internal/scoring"
)

// apiError is the JSON error body.
type apiError struct {
	Error    string    `json:"error"`
	Message  string    `json:"message"`
	Field    string    `json:"field,omitempty"`
	Missing  []string  `json:"missing,omitempty"`
	Found    *int      `json:"found,omitempty"`
	Required *int      `json:"required,omitempty"`
	Values   []float64 `json:"values,omitempty"`
}

// classify maps err to an HTTP status and error body.
func classify(err error) (int, apiError) {
	var (
		maxBytes     *http.MaxBytesError
		insufficient *input.InsufficientDataError
		missing      *input.MissingColumnError
		invalid      *input.InvalidValueError
		schema       *features.SchemaError
		field        *features.DomainError
		probability  *risk.DomainError
	)
	body := apiError{Message: err.Error()}

	switch {
	case errors.As(err, &maxBytes):
		body.Error = "payload_too_large"
		return http.StatusRequestEntityTooLarge, body
	case errors.Is(err, scoring.ErrResourceUnavailable):
		body.Error = "resource_unavailable"
		return http.StatusServiceUnavailable, body
	case errors.Is(err, input.ErrUnsupportedFile), errors.Is(err, errNoFile):
		body.Error = "invalid_payload"
		return http.StatusBadRequest, body
	case errors.As(err, &insufficient):
		body.Error = "insufficient_data"
		body.Found = &insufficient.Found
		body.Required = &insufficient.Required
		body.Values = append([]float64{}, insufficient.Values...)
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &missing):
		body.Error = "missing_columns"
		body.Missing = missing.Missing
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &invalid):
		body.Error = "invalid_value"
		body.Field = invalid.Column
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &schema):
		body.Error = "schema_mismatch"
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &field):
		body.Error = "invalid_field"
		body.Field = field.Field
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &probability):
		body.Error = "probability_out_of_range"
		return http.StatusInternalServerError, body
	default:
		body.Error = "internal"
		return http.StatusInternalServerError, body
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "err", err)
	}
	c.JSON(status, body)
}

// writeBindError answers a malformed request: 413 when the body limit was
// hit, otherwise 400.
func (s *Server) writeBindError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		c.JSON(http.StatusRequestEntityTooLarge, apiError{Error: "payload_too_large", Message: err.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, apiError{Error: "invalid_payload", Message: err.Error()})
}
