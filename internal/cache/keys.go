package cache

import "fmt"

// Key builders shared by the catalogue services. Every read path caches under one of
// these keys and every write path invalidates them through the matching patterns.

// BooksListKey caches one page of the book listing.
func BooksListKey(skip, limit int) string {
	return fmt.Sprintf("books:list:%d:%d", skip, limit)
}

// BooksListPattern matches every cached page of the book listing.
func BooksListPattern() string {
	return "books:list:*"
}

// BookKey caches a single book.
func BookKey(id uint) string {
	return fmt.Sprintf("book:%d", id)
}

// BookWithReviewsKey caches a book together with all of its reviews.
func BookWithReviewsKey(id uint) string {
	return fmt.Sprintf("book:reviews:%d", id)
}

// BookReviewsListKey caches one page of a book's reviews.
func BookReviewsListKey(bookID uint, skip, limit int) string {
	return fmt.Sprintf("reviews:book:%d:%d:%d", bookID, skip, limit)
}

// BookReviewsListPattern matches every cached page of a book's reviews.
func BookReviewsListPattern(bookID uint) string {
	return fmt.Sprintf("reviews:book:%d:*", bookID)
}

// ReviewKey caches a single review.
func ReviewKey(id uint) string {
	return fmt.Sprintf("review:%d", id)
}

// ReviewPattern matches every cached single review.
func ReviewPattern() string {
	return "review:*"
}
