package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/charlesng35/bookreview/internal/services"
	appErrors "github.com/charlesng35/bookreview/pkg/errors"
	"github.com/charlesng35/bookreview/pkg/response"
	appValidator "github.com/charlesng35/bookreview/pkg/validator"
)

const validationErrorCode = "VALIDATION_ERROR"

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindBodyWith(dest, binding.JSON); err != nil {
		response.Error(c, invalidPayload())
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, validationFailure(err))
		return false
	}

	return true
}

// jsonFields holds the top-level keys named by a JSON object body.
type jsonFields map[string]json.RawMessage

func (f jsonFields) has(key string) bool {
	_, ok := f[key]
	return ok
}

func (f jsonFields) isNull(key string) bool {
	raw, ok := f[key]
	return ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// bindUpdate binds a partial update body and reports which fields it named. The keys in
// notNull may be omitted but not sent as null.
func bindUpdate[T any](c *gin.Context, dest *T, notNull ...string) (jsonFields, bool) {
	if !bindAndValidate(c, dest) {
		return nil, false
	}

	var fields jsonFields
	if err := c.ShouldBindBodyWith(&fields, binding.JSON); err != nil {
		response.Error(c, invalidPayload())
		return nil, false
	}
	for _, key := range notNull {
		if fields.isNull(key) {
			response.Error(c, appErrors.New(validationErrorCode,
				appValidator.FieldLabel(key)+" must not be null", http.StatusBadRequest))
			return nil, false
		}
	}
	return fields, true
}

func invalidPayload() *appErrors.AppError {
	return appErrors.New(validationErrorCode, "invalid JSON payload", http.StatusBadRequest)
}

// validationFailure maps struct validation failures to a client error. The catalogue tags
// reuse the service error codes so clients see one code per rule.
func validationFailure(err error) *appErrors.AppError {
	var failures appValidator.ValidationErrors
	if errors.As(err, &failures) {
		for _, failure := range failures {
			switch failure.Tag {
			case appValidator.TagISBN:
				return fromServiceError(services.ErrInvalidISBN)
			case appValidator.TagRating:
				return fromServiceError(services.ErrInvalidRating)
			}
		}
	}
	if len(failures) == 0 {
		return appErrors.New(validationErrorCode, "invalid request payload", http.StatusBadRequest)
	}
	return appErrors.New(validationErrorCode, failures.Error(), http.StatusBadRequest)
}

// page is an offset window parsed from skip/limit query parameters.
type page struct {
	Skip  int
	Limit int
}

func (p page) meta(count int) *response.Meta {
	return &response.Meta{Skip: p.Skip, Limit: p.Limit, Count: count}
}

// hasPagination reports whether the request names skip or limit explicitly.
func hasPagination(c *gin.Context) bool {
	query := c.Request.URL.Query()
	_, skip := query["skip"]
	_, limit := query["limit"]
	return skip || limit
}

// parsePage reads skip (default 0, >= 0) and limit (default 10, 1..100). Malformed or
// out-of-range values write a 400 and return false.
func parsePage(c *gin.Context) (page, bool) {
	skip, err := parseIntQuery(c, "skip", 0)
	if err != nil || skip < 0 {
		response.Error(c, appErrors.New("INVALID_PAGINATION", "skip must be a non-negative integer", http.StatusBadRequest))
		return page{}, false
	}

	limit, err := parseIntQuery(c, "limit", services.DefaultLimit)
	if err != nil || limit < 1 || limit > services.MaxLimit {
		response.Error(c, appErrors.New("INVALID_PAGINATION",
			fmt.Sprintf("limit must be an integer between 1 and %d", services.MaxLimit), http.StatusBadRequest))
		return page{}, false
	}

	return page{Skip: skip, Limit: limit}, true
}

func parseIntQuery(c *gin.Context, key string, fallback int) (int, error) {
	value, present := c.GetQuery(key)
	if !present {
		return fallback, nil
	}
	return strconv.Atoi(strings.TrimSpace(value))
}

// parseID reads a positive integer path parameter, writing a 400 when it is malformed.
func parseID(c *gin.Context, name, label string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		response.Error(c, appErrors.NewBadRequest(fmt.Sprintf("invalid %s id", label)))
		return 0, false
	}
	return uint(id), true
}
