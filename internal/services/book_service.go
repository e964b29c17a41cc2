package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/bookreview/internal/cache"
	"github.com/charlesng35/bookreview/internal/models"
	"github.com/charlesng35/bookreview/pkg/logger"
	"github.com/charlesng35/bookreview/pkg/validator"
)

// CreateBookInput captures new book metadata.
type CreateBookInput struct {
	Title           string
	Author          string
	ISBN            *string
	Description     *string
	PublicationYear *int
}

// UpdateBookInput describes mutable book fields. Nil Title and Author are left untouched;
// the nullable fields apply only when Set.
type UpdateBookInput struct {
	Title           *string
	Author          *string
	ISBN            Nullable[string]
	Description     Nullable[string]
	PublicationYear Nullable[int]
}

// BookServiceOption customises a BookService.
type BookServiceOption func(*BookService)

// WithMaxPublicationYear overrides the latest accepted publication year.
func WithMaxPublicationYear(year int) BookServiceOption {
	return func(s *BookService) {
		if year > 0 {
			s.maxYear = year
		}
	}
}

// BookService handles the book lifecycle and keeps the read cache consistent with the store.
type BookService struct {
	db      *gorm.DB
	cache   *cache.Client
	maxYear int
	log     *zap.Logger
}

// NewBookService constructs a BookService. A nil cache client disables caching.
func NewBookService(db *gorm.DB, cacheClient *cache.Client, opts ...BookServiceOption) (*BookService, error) {
	if db == nil {
		return nil, errors.New("book service: db is required")
	}
	if cacheClient == nil {
		cacheClient = cache.NewClient(nil)
	}

	svc := &BookService{
		db:      db,
		cache:   cacheClient,
		maxYear: validator.MaxPublicationYear,
		log:     logger.WithModule("books"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// List returns a page of books ordered by id.
func (s *BookService) List(ctx context.Context, skip, limit int) ([]models.Book, error) {
	ctx = ensureContext(ctx)
	if err := validatePage(skip, limit); err != nil {
		return nil, err
	}

	key := cache.BooksListKey(skip, limit)
	var books []models.Book
	if s.cache.GetJSON(ctx, key, &books).Hit() {
		return books, nil
	}

	books = []models.Book{}
	if err := s.db.WithContext(ctx).
		Order("id ASC").
		Offset(skip).
		Limit(limit).
		Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	s.cache.Set(ctx, key, books, 0)
	return books, nil
}

// Get returns the book identified by id.
func (s *BookService) Get(ctx context.Context, id uint) (*models.Book, error) {
	ctx = ensureContext(ctx)

	key := cache.BookKey(id)
	var cached models.Book
	if s.cache.GetJSON(ctx, key, &cached).Hit() {
		return &cached, nil
	}

	book, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, book, 0)
	return book, nil
}

// GetWithReviews returns the book together with every review, ordered by review id.
func (s *BookService) GetWithReviews(ctx context.Context, id uint) (*models.BookWithReviews, error) {
	ctx = ensureContext(ctx)

	key := cache.BookWithReviewsKey(id)
	var cached models.BookWithReviews
	if s.cache.GetJSON(ctx, key, &cached).Hit() {
		return &cached, nil
	}

	book, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var reviews []models.Review
	if err := s.db.WithContext(ctx).
		Where("book_id = ?", id).
		Order("id ASC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to load reviews for book %d: %w", id, err)
	}

	result := models.NewBookWithReviews(*book, reviews)
	s.cache.Set(ctx, key, result, 0)
	return &result, nil
}

// GetByISBN looks a book up by its normalised ISBN. It reads the store directly.
func (s *BookService) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	ctx = ensureContext(ctx)

	normalised := validator.NormalizeISBN(isbn)
	if normalised == "" {
		return nil, ErrBookNotFound
	}

	var book models.Book
	err := s.db.WithContext(ctx).Where("isbn = ?", normalised).Take(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book by isbn: %w", err)
	}
	return &book, nil
}

// Create validates and inserts a book, returning the stored row.
func (s *BookService) Create(ctx context.Context, input CreateBookInput) (*models.Book, error) {
	ctx = ensureContext(ctx)

	title, err := requiredText("title", input.Title)
	if err != nil {
		return nil, err
	}
	author, err := requiredText("author", input.Author)
	if err != nil {
		return nil, err
	}
	isbn, err := normaliseISBN(input.ISBN)
	if err != nil {
		return nil, err
	}
	if err := s.checkYear(input.PublicationYear); err != nil {
		return nil, err
	}
	if isbn != nil {
		if err := s.ensureISBNAvailable(ctx, *isbn, 0); err != nil {
			return nil, err
		}
	}

	book := &models.Book{
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		Description:     input.Description,
		PublicationYear: input.PublicationYear,
	}

	if err := s.db.WithContext(ctx).Create(book).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	created, err := s.load(ctx, book.ID)
	if err != nil {
		return nil, err
	}

	s.cache.ClearPattern(ctx, cache.BooksListPattern())
	s.log.Debug("book created", zap.Uint("book_id", created.ID))
	return created, nil
}

// Update applies the provided fields to an existing book.
func (s *BookService) Update(ctx context.Context, id uint, input UpdateBookInput) (*models.Book, error) {
	ctx = ensureContext(ctx)

	book, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if input.Title != nil {
		title, err := requiredText("title", *input.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if input.Author != nil {
		author, err := requiredText("author", *input.Author)
		if err != nil {
			return nil, err
		}
		updates["author"] = author
	}
	if input.ISBN.Set {
		isbn, err := normaliseISBN(input.ISBN.Value)
		if err != nil {
			return nil, err
		}
		switch {
		case isbn == nil:
			updates["isbn"] = nil
		case book.ISBN == nil || *book.ISBN != *isbn:
			if err := s.ensureISBNAvailable(ctx, *isbn, book.ID); err != nil {
				return nil, err
			}
			updates["isbn"] = *isbn
		}
	}
	if input.Description.Set {
		updates["description"] = nullableValue(input.Description)
	}
	if input.PublicationYear.Set {
		if err := s.checkYear(input.PublicationYear.Value); err != nil {
			return nil, err
		}
		updates["publication_year"] = nullableValue(input.PublicationYear)
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
		if err := s.db.WithContext(ctx).
			Model(&models.Book{}).
			Where("id = ?", book.ID).
			Updates(updates).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil, ErrDuplicateISBN
			}
			return nil, fmt.Errorf("failed to update book: %w", err)
		}
	}

	updated, err := s.load(ctx, book.ID)
	if err != nil {
		return nil, err
	}

	s.invalidateBook(ctx, book.ID)
	return updated, nil
}

// Delete removes a book and its reviews in one transaction.
func (s *BookService) Delete(ctx context.Context, id uint) error {
	ctx = ensureContext(ctx)

	book, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	var reviewIDs []uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Review{}).
			Where("book_id = ?", book.ID).
			Pluck("id", &reviewIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", book.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Book{}, book.ID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	s.invalidateBook(ctx, book.ID)
	s.cache.ClearPattern(ctx, cache.BookReviewsListPattern(book.ID))
	if len(reviewIDs) > 0 {
		keys := make([]string, 0, len(reviewIDs))
		for _, reviewID := range reviewIDs {
			keys = append(keys, cache.ReviewKey(reviewID))
		}
		s.cache.Delete(ctx, keys...)
	}

	s.log.Debug("book deleted", zap.Uint("book_id", book.ID), zap.Int("reviews", len(reviewIDs)))
	return nil
}

// Count returns the number of stored books.
func (s *BookService) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ensureContext(ctx)).Model(&models.Book{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

func (s *BookService) load(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := s.db.WithContext(ctx).Take(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book %d: %w", id, err)
	}
	return &book, nil
}

func (s *BookService) invalidateBook(ctx context.Context, id uint) {
	s.cache.Delete(ctx, cache.BookKey(id), cache.BookWithReviewsKey(id))
	s.cache.ClearPattern(ctx, cache.BooksListPattern())
}

func (s *BookService) ensureISBNAvailable(ctx context.Context, isbn string, exceptID uint) error {
	existing, err := s.GetByISBN(ctx, isbn)
	if errors.Is(err, ErrBookNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != exceptID {
		return ErrDuplicateISBN
	}
	return nil
}

func (s *BookService) checkYear(year *int) error {
	if year == nil {
		return nil
	}
	if !validator.ValidPublicationYear(*year, s.maxYear) {
		return ErrInvalidPublicationYear
	}
	return nil
}

// normaliseISBN validates an optional ISBN. An empty value normalises to nil.
func normaliseISBN(isbn *string) (*string, error) {
	if isbn == nil || strings.TrimSpace(*isbn) == "" {
		return nil, nil
	}
	if !validator.ValidISBN(*isbn) {
		return nil, ErrInvalidISBN
	}
	normalised := validator.NormalizeISBN(*isbn)
	return &normalised, nil
}
