package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/bookreview/internal/cache"
	"github.com/charlesng35/bookreview/internal/models"
	"github.com/charlesng35/bookreview/pkg/logger"
	"github.com/charlesng35/bookreview/pkg/validator"
)

// CreateReviewInput captures a new review for a book.
type CreateReviewInput struct {
	ReviewerName string
	Rating       int
	Comment      *string
}

// UpdateReviewInput describes mutable review fields. Nil ReviewerName and Rating are left
// untouched; Comment applies only when Set.
type UpdateReviewInput struct {
	ReviewerName *string
	Rating       *int
	Comment      Nullable[string]
}

// ReviewService handles reviews attached to books.
type ReviewService struct {
	db    *gorm.DB
	cache *cache.Client
	log   *zap.Logger
}

// NewReviewService constructs a ReviewService. A nil cache client disables caching.
func NewReviewService(db *gorm.DB, cacheClient *cache.Client) (*ReviewService, error) {
	if db == nil {
		return nil, errors.New("review service: db is required")
	}
	if cacheClient == nil {
		cacheClient = cache.NewClient(nil)
	}
	return &ReviewService{
		db:    db,
		cache: cacheClient,
		log:   logger.WithModule("reviews"),
	}, nil
}

// ListForBook returns a page of the book's reviews ordered by id.
// The book's existence is always checked against the store.
func (s *ReviewService) ListForBook(ctx context.Context, bookID uint, skip, limit int) ([]models.Review, error) {
	ctx = ensureContext(ctx)
	if err := validatePage(skip, limit); err != nil {
		return nil, err
	}
	if err := s.ensureBookExists(ctx, bookID); err != nil {
		return nil, err
	}

	key := cache.BookReviewsListKey(bookID, skip, limit)
	var reviews []models.Review
	if s.cache.GetJSON(ctx, key, &reviews).Hit() {
		return reviews, nil
	}

	reviews = []models.Review{}
	if err := s.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("id ASC").
		Offset(skip).
		Limit(limit).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews for book %d: %w", bookID, err)
	}

	s.cache.Set(ctx, key, reviews, 0)
	return reviews, nil
}

// Get returns the review identified by id.
func (s *ReviewService) Get(ctx context.Context, id uint) (*models.Review, error) {
	ctx = ensureContext(ctx)

	key := cache.ReviewKey(id)
	var cached models.Review
	if s.cache.GetJSON(ctx, key, &cached).Hit() {
		return &cached, nil
	}

	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, review, 0)
	return review, nil
}

// Create attaches a new review to an existing book.
func (s *ReviewService) Create(ctx context.Context, bookID uint, input CreateReviewInput) (*models.Review, error) {
	ctx = ensureContext(ctx)

	if err := s.ensureBookExists(ctx, bookID); err != nil {
		return nil, err
	}
	if !validator.ValidRating(input.Rating) {
		return nil, ErrInvalidRating
	}
	name, err := requiredText("reviewer_name", input.ReviewerName)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		BookID:       bookID,
		ReviewerName: name,
		Rating:       input.Rating,
		Comment:      input.Comment,
	}
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	created, err := s.load(ctx, review.ID)
	if err != nil {
		return nil, err
	}

	s.invalidateBookReviews(ctx, bookID)
	return created, nil
}

// Update applies the provided fields to an existing review.
func (s *ReviewService) Update(ctx context.Context, id uint, input UpdateReviewInput) (*models.Review, error) {
	ctx = ensureContext(ctx)

	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Rating != nil {
		if !validator.ValidRating(*input.Rating) {
			return nil, ErrInvalidRating
		}
		updates["rating"] = *input.Rating
	}
	if input.ReviewerName != nil {
		name, err := requiredText("reviewer_name", *input.ReviewerName)
		if err != nil {
			return nil, err
		}
		updates["reviewer_name"] = name
	}
	if input.Comment.Set {
		updates["comment"] = nullableValue(input.Comment)
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
		if err := s.db.WithContext(ctx).
			Model(&models.Review{}).
			Where("id = ?", review.ID).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
	}

	updated, err := s.load(ctx, review.ID)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.ReviewKey(review.ID))
	s.invalidateBookReviews(ctx, review.BookID)
	return updated, nil
}

// Delete removes a review.
func (s *ReviewService) Delete(ctx context.Context, id uint) error {
	ctx = ensureContext(ctx)

	review, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Review{}, review.ID).Error; err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.cache.Delete(ctx, cache.ReviewKey(review.ID))
	s.invalidateBookReviews(ctx, review.BookID)
	s.log.Debug("review deleted", zap.Uint("review_id", review.ID), zap.Uint("book_id", review.BookID))
	return nil
}

// Count returns the number of stored reviews.
func (s *ReviewService) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ensureContext(ctx)).Model(&models.Review{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// DeleteOrphans removes reviews whose book no longer exists. Backends that enforce the
// foreign key never accumulate any.
func (s *ReviewService) DeleteOrphans(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	existing := s.db.Model(&models.Book{}).Select("id")
	var bookIDs []uint
	if err := s.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("book_id NOT IN (?)", existing).
		Distinct().
		Pluck("book_id", &bookIDs).Error; err != nil {
		return 0, fmt.Errorf("failed to find orphaned reviews: %w", err)
	}
	if len(bookIDs) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).Where("book_id IN ?", bookIDs).Delete(&models.Review{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete orphaned reviews: %w", result.Error)
	}

	for _, bookID := range bookIDs {
		s.invalidateBookReviews(ctx, bookID)
	}
	s.cache.ClearPattern(ctx, cache.ReviewPattern())
	return result.RowsAffected, nil
}

func (s *ReviewService) load(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	err := s.db.WithContext(ctx).Take(&review, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load review %d: %w", id, err)
	}
	return &review, nil
}

func (s *ReviewService) ensureBookExists(ctx context.Context, bookID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to load book %d: %w", bookID, err)
	}
	if count == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (s *ReviewService) invalidateBookReviews(ctx context.Context, bookID uint) {
	s.cache.ClearPattern(ctx, cache.BookReviewsListPattern(bookID))
	s.cache.Delete(ctx, cache.BookWithReviewsKey(bookID))
}
