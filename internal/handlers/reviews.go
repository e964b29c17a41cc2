package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/bookreview/internal/services"
	"github.com/charlesng35/bookreview/pkg/response"
)

type ReviewHandler struct {
	errorResponder
	svc *services.ReviewService
}

type createReviewRequest struct {
	ReviewerName string  `json:"reviewer_name" validate:"required,max=255"`
	Rating       *int    `json:"rating" validate:"required,rating"`
	Comment      *string `json:"comment"`
}

type updateReviewRequest struct {
	ReviewerName *string `json:"reviewer_name" validate:"omitempty,min=1,max=255"`
	Rating       *int    `json:"rating" validate:"omitempty,rating"`
	Comment      *string `json:"comment"`
}

func NewReviewHandler(svc *services.ReviewService, debug bool) (*ReviewHandler, error) {
	if svc == nil {
		return nil, errors.New("review handler: service is required")
	}
	return &ReviewHandler{errorResponder: errorResponder{debug: debug}, svc: svc}, nil
}

// POST /books/:id/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	bookID, ok := parseID(c, "id", "book")
	if !ok {
		return
	}

	var body createReviewRequest
	if !bindAndValidate(c, &body) {
		return
	}

	review, err := h.svc.Create(requestContext(c), bookID, services.CreateReviewInput{
		ReviewerName: body.ReviewerName,
		Rating:       *body.Rating,
		Comment:      body.Comment,
	})
	if err != nil {
		h.respond(c, err)
		return
	}
	response.Success(c, http.StatusCreated, review)
}

// GET /reviews/:id
func (h *ReviewHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "review")
	if !ok {
		return
	}

	review, err := h.svc.Get(requestContext(c), id)
	if err != nil {
		h.respond(c, err)
		return
	}
	response.Success(c, http.StatusOK, review)
}

// PUT /reviews/:id
func (h *ReviewHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "review")
	if !ok {
		return
	}

	var body updateReviewRequest
	fields, ok := bindUpdate(c, &body, "reviewer_name", "rating")
	if !ok {
		return
	}

	review, err := h.svc.Update(requestContext(c), id, services.UpdateReviewInput{
		ReviewerName: body.ReviewerName,
		Rating:       body.Rating,
		Comment:      services.NullableFrom(body.Comment, fields.has("comment")),
	})
	if err != nil {
		h.respond(c, err)
		return
	}
	response.Success(c, http.StatusOK, review)
}

// DELETE /reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "review")
	if !ok {
		return
	}

	if err := h.svc.Delete(requestContext(c), id); err != nil {
		h.respond(c, err)
		return
	}
	response.NoContent(c)
}
