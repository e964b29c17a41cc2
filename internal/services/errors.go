package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrorKind classifies expected, client-caused failures.
type ErrorKind uint8

const (
	KindNotFound ErrorKind = iota + 1
	KindValidation
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is returned for outcomes the caller caused. Any other error is an internal fault.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors of the same kind and code so callers can use errors.Is with the sentinels.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind && e.Code == other.Code
}

var (
	ErrBookNotFound           = &Error{Kind: KindNotFound, Code: "BOOK_NOT_FOUND", Message: "Book not found"}
	ErrReviewNotFound         = &Error{Kind: KindNotFound, Code: "REVIEW_NOT_FOUND", Message: "Review not found"}
	ErrInvalidISBN            = &Error{Kind: KindValidation, Code: "INVALID_ISBN", Message: "Invalid ISBN format"}
	ErrInvalidPublicationYear = &Error{Kind: KindValidation, Code: "INVALID_PUBLICATION_YEAR", Message: "Invalid publication year"}
	ErrInvalidRating          = &Error{Kind: KindValidation, Code: "INVALID_RATING", Message: "Rating must be between 1 and 5"}
	ErrInvalidPagination      = &Error{Kind: KindValidation, Code: "INVALID_PAGINATION", Message: "skip must be >= 0 and limit between 1 and 100"}
	ErrDuplicateISBN          = &Error{Kind: KindConflict, Code: "DUPLICATE_ISBN", Message: "Book with this ISBN already exists"}
)

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message}
}

// AsError extracts a service error from err.
func AsError(err error) (*Error, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate")
}
