package validator

import (
	"strings"
	"unicode"
)

const (
	// TagISBN validates ISBN-10 / ISBN-13 shaped strings.
	TagISBN = "isbn_format"
	// TagRating validates review ratings.
	TagRating = "rating"

	// MaxPublicationYear is the default upper bound for publication years.
	MaxPublicationYear = 2024

	MinRating = 1
	MaxRating = 5
)

// NormalizeISBN strips hyphens and whitespace and upper-cases a trailing check character.
func NormalizeISBN(isbn string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, isbn)
	return strings.ToUpper(cleaned)
}

// ValidISBN reports whether isbn is empty or a well formed ISBN-10 or ISBN-13.
// Check digits are not verified.
func ValidISBN(isbn string) bool {
	cleaned := NormalizeISBN(isbn)
	switch len(cleaned) {
	case 0:
		return true
	case 10:
		if !allDigits(cleaned[:9]) {
			return false
		}
		last := cleaned[9]
		return isDigit(last) || last == 'X'
	case 13:
		return allDigits(cleaned)
	default:
		return false
	}
}

// ValidRating reports whether rating lies in [MinRating, MaxRating].
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// ValidPublicationYear reports whether year lies in [1, maxYear]. A non-positive maxYear
// falls back to MaxPublicationYear.
func ValidPublicationYear(year, maxYear int) bool {
	if maxYear <= 0 {
		maxYear = MaxPublicationYear
	}
	return year >= 1 && year <= maxYear
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
