package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/validation"
	"agency-dashboard/internal/store"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   apperrors.ErrorCode    `json:"error"`
	Message string                 `json:"message"`
	Fields  []apperrors.FieldError `json:"fields,omitempty"`
}

type ListResponse[T any] struct {
	Data   []T                 `json:"data"`
	Total  int                 `json:"total"`
	Facets map[string][]string `json:"facets,omitempty"`
}

func respondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	status := apperrors.HTTPStatus(code)

	fields := map[string]interface{}{"error": err, "code": code, "category": apperrors.GetErrorCategory(code)}
	if status >= http.StatusInternalServerError {
		requestLogger(c).Error("Request failed", fields)
	} else {
		requestLogger(c).Warn("Request rejected", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Fields:  apperrors.FieldsOf(err),
	})
}

// pathID parses the :id parameter. Non-numeric ids are reported as not found.
func pathID(c *gin.Context, resource string) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		respondError(c, apperrors.NewNotFoundError(resource, id))
		return 0, false
	}
	return id, true
}

// bindValidated checks the body against a JSON Schema, then decodes it into out.
func bindValidated(c *gin.Context, schema string, out interface{}) bool {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, apperrors.NewValidationError(apperrors.FieldError{Field: "body", Message: err.Error()}))
		return false
	}
	if err := validation.Validate(schema, body); err != nil {
		respondError(c, err)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		respondError(c, apperrors.NewValidationError(apperrors.FieldError{Field: "body", Message: err.Error()}))
		return false
	}
	return true
}

// bindPatch validates a partial update against schema and returns it as a store patch.
func bindPatch(c *gin.Context, schema string) (store.Patch, bool) {
	var patch store.Patch
	if !bindValidated(c, schema, &patch) {
		return nil, false
	}
	return patch, true
}

// bindJSON decodes a body that has no schema.
func bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondError(c, apperrors.NewValidationError(apperrors.FieldError{Field: "body", Message: err.Error()}))
		return false
	}
	return true
}

func listOf[T any](data []T) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Data: data, Total: len(data)}
}
