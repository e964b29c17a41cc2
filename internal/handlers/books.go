package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/bookreview/internal/services"
	"github.com/charlesng35/bookreview/pkg/response"
)

type BookHandler struct {
	errorResponder
	books   *services.BookService
	reviews *services.ReviewService
}

type createBookRequest struct {
	Title           string  `json:"title" validate:"required,max=255"`
	Author          string  `json:"author" validate:"required,max=255"`
	ISBN            *string `json:"isbn" validate:"omitempty,isbn_format"`
	Description     *string `json:"description"`
	PublicationYear *int    `json:"publication_year"`
}

type updateBookRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=255"`
	Author          *string `json:"author" validate:"omitempty,min=1,max=255"`
	ISBN            *string `json:"isbn" validate:"omitempty,isbn_format"`
	Description     *string `json:"description"`
	PublicationYear *int    `json:"publication_year"`
}

// NewBookHandler wires book endpoints. reviews serves the paged review listing nested under a book.
func NewBookHandler(books *services.BookService, reviews *services.ReviewService, debug bool) (*BookHandler, error) {
	if books == nil || reviews == nil {
		return nil, errors.New("book handler: services are required")
	}
	return &BookHandler{
		errorResponder: errorResponder{debug: debug},
		books:          books,
		reviews:        reviews,
	}, nil
}

// GET /books
func (h *BookHandler) List(c *gin.Context) {
	p, ok := parsePage(c)
	if !ok {
		return
	}

	books, err := h.books.List(requestContext(c), p.Skip, p.Limit)
	if err != nil {
		h.respond(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, books, p.meta(len(books)))
}

// GET /books/:id
func (h *BookHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "book")
	if !ok {
		return
	}

	book, err := h.books.Get(requestContext(c), id)
	if err != nil {
		h.respond(c, err)
		return
	}
	response.Success(c, http.StatusOK, book)
}

// GET /books/:id/reviews
//
// Without skip/limit the book is returned with every review nested; with either parameter the
// reviews are returned as a page.
func (h *BookHandler) Reviews(c *gin.Context) {
	if hasPagination(c) {
		h.ListReviews(c)
		return
	}
	h.GetWithReviews(c)
}

// GetWithReviews returns the book and all of its reviews.
func (h *BookHandler) GetWithReviews(c *gin.Context) {
	id, ok := parseID(c, "id", "book")
	if !ok {
		return
	}

	book, err := h.books.GetWithReviews(requestContext(c), id)
	if err != nil {
		h.respond(c, err)
		return
	}
	response.Success(c, http.StatusOK, book)
}

// ListReviews returns a page of the book's reviews.
func (h *BookHandler) ListReviews(c *gin.Context) {
	id, ok := parseID(c, "id", "book")
	if !ok {
		return
	}
	p, ok := parsePage(c)
	if !ok {
		return
	}

	reviews, err := h.reviews.ListForBook(requestContext(c), id, p.Skip, p.Limit)
	if err != nil {
		h.respond(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, reviews, p.meta(len(reviews)))
}

// POST /books
func (h *BookHandler) Create(c *gin.Context) {
	var body createBookRequest
	if !bindAndValidate(c, &body) {
		return
	}

	book, err := h.books.Create(requestContext(c), services.CreateBookInput{
		Title:           body.Title,
		Author:          body.Author,
		ISBN:            body.ISBN,
		Description:     body.Description,
		PublicationYear: body.PublicationYear,
	})
	if err != nil {
		h.respond(c, err)
		return
	}
	response.Success(c, http.StatusCreated, book)
}

// PUT /books/:id
//
// Named fields are applied; null clears isbn, description and publication_year.
func (h *BookHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "book")
	if !ok {
		return
	}

	var body updateBookRequest
	fields, ok := bindUpdate(c, &body, "title", "author")
	if !ok {
		return
	}

	book, err := h.books.Update(requestContext(c), id, services.UpdateBookInput{
		Title:           body.Title,
		Author:          body.Author,
		ISBN:            services.NullableFrom(body.ISBN, fields.has("isbn")),
		Description:     services.NullableFrom(body.Description, fields.has("description")),
		PublicationYear: services.NullableFrom(body.PublicationYear, fields.has("publication_year")),
	})
	if err != nil {
		h.respond(c, err)
		return
	}
	response.Success(c, http.StatusOK, book)
}

// DELETE /books/:id
func (h *BookHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "book")
	if !ok {
		return
	}

	if err := h.books.Delete(requestContext(c), id); err != nil {
		h.respond(c, err)
		return
	}
	response.NoContent(c)
}
