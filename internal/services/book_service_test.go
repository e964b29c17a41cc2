package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/bookreview/internal/cache"
	"github.com/charlesng35/bookreview/internal/models"
)

func TestBookServiceCreateAndGet(t *testing.T) {
	f := newCatalogFixture(t, cache.NewMemoryStore(0))
	ctx := context.Background()

	created, err := f.books.Create(ctx, CreateBookInput{
		Title:           "  Clean Code ",
		Author:          "Robert C. Martin",
		ISBN:            strPtr("978-0-13-235088-4"),
		Description:     strPtr("A handbook of agile software craftsmanship"),
		PublicationYear: intPtr(2008),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "Clean Code", created.Title)
	require.Equal(t, "9780132350884", *created.ISBN)
	require.False(t, created.CreatedAt.IsZero())
	require.Nil(t, created.UpdatedAt)

	fetched, err := f.books.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, created.Title, fetched.Title)
	require.Equal(t, created.Author, fetched.Author)
	require.Equal(t, *created.ISBN, *fetched.ISBN)
	require.Equal(t, *created.Description, *fetched.Description)
	require.Equal(t, *created.PublicationYear, *fetched.PublicationYear)
	require.True(t, created.CreatedAt.Equal(fetched.CreatedAt))
	require.True(t, f.cached(t, cache.BookKey(created.ID)))

	byISBN, err := f.books.GetByISBN(ctx, "9780132350884")
	require.NoError(t, err)
	require.Equal(t, created.ID, byISBN.ID)

	_, err = f.books.Get(ctx, created.ID+100)
	require.ErrorIs(t, err, ErrBookNotFound)
}

func TestBookServiceCreateValidation(t *testing.T) {
	f := newCatalogFixture(t, cache.NewMemoryStore(0))
	ctx := context.Background()

	_, err := f.books.Create(ctx, CreateBookInput{Title: "T", Author: "A", ISBN: strPtr("12345")})
	require.ErrorIs(t, err, ErrInvalidISBN)

	_, err = f.books.Create(ctx, CreateBookInput{Title: "T", Author: "A", PublicationYear: intPtr(2025)})
	require.ErrorIs(t, err, ErrInvalidPublicationYear)

	_, err = f.books.Create(ctx, CreateBookInput{Title: "T", Author: "A", PublicationYear: intPtr(0)})
	require.ErrorIs(t, err, ErrInvalidPublicationYear)

	_, err = f.books.Create(ctx, CreateBookInput{Title: "   ", Author: "A"})
	svcErr, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, KindValidation, svcErr.Kind)
	require.Equal(t, "title is required", svcErr.Message)

	book, err := f.books.Create(ctx, CreateBookInput{Title: "No ISBN", Author: "A", ISBN: strPtr("")})
	require.NoError(t, err)
	require.Nil(t, book.ISBN)
}

func TestBookServiceMaxPublicationYearOption(t *testing.T) {
	f := newCatalogFixture(t, nil)
	books, err := NewBookService(f.db, nil, WithMaxPublicationYear(2030))
	require.NoError(t, err)

	_, err = books.Create(context.Background(), CreateBookInput{Title: "Future", Author: "A", PublicationYear: intPtr(2030)})
	require.NoError(t, err)
}

func TestBookServiceDuplicateISBN(t *testing.T) {
	f := newCatalogFixture(t, cache.NewMemoryStore(0))
	ctx := context.Background()

	first, err := f.books.Create(ctx, CreateBookInput{Title: "First", Author: "A", ISBN: strPtr("0306406152")})
	require.NoError(t, err)

	_, err = f.books.Create(ctx, CreateBookInput{Title: "Second", Author: "B", ISBN: strPtr("0-306-40615-2")})
	require.ErrorIs(t, err, ErrDuplicateISBN)

	second, err := f.books.Create(ctx, CreateBookInput{Title: "Second", Author: "B", ISBN: strPtr("123456789x")})
	require.NoError(t, err)
	require.Equal(t, "123456789X", *second.ISBN)

	_, err = f.books.Update(ctx, second.ID, UpdateBookInput{ISBN: SetTo("0306406152")})
	require.ErrorIs(t, err, ErrDuplicateISBN)

	// Re-submitting the book's own isbn is not a conflict.
	_, err = f.books.Update(ctx, first.ID, UpdateBookInput{ISBN: SetTo("030-640-6152")})
	require.NoError(t, err)
}

func TestBookServicePartialUpdate(t *testing.T) {
	f := newCatalogFixture(t, cache.NewMemoryStore(0))
	ctx := context.Background()

	created, err := f.books.Create(ctx, CreateBookInput{
		Title:           "Refactoring",
		Author:          "Martin Fowler",
		ISBN:            strPtr("9780134757599"),
		Description:     strPtr("Improving the design of existing code"),
		PublicationYear: intPtr(2018),
	})
	require.NoError(t, err)

	_, err = f.books.Get(ctx, created.ID)
	require.NoError(t, err)
	_, err = f.books.GetWithReviews(ctx, created.ID)
	require.NoError(t, err)
	_, err = f.books.List(ctx, 0, 10)
	require.NoError(t, err)

	updated, err := f.books.Update(ctx, created.ID, UpdateBookInput{Title: strPtr("Refactoring, 2nd Edition")})
	require.NoError(t, err)
	require.Equal(t, "Refactoring, 2nd Edition", updated.Title)
	require.Equal(t, created.Author, updated.Author)
	require.Equal(t, *created.ISBN, *updated.ISBN)
	require.Equal(t, *created.Description, *updated.Description)
	require.Equal(t, *created.PublicationYear, *updated.PublicationYear)
	require.NotNil(t, updated.UpdatedAt)

	require.False(t, f.cached(t, cache.BookKey(created.ID)))
	require.False(t, f.cached(t, cache.BookWithReviewsKey(created.ID)))
	require.False(t, f.cached(t, cache.BooksListKey(0, 10)))

	fetched, err := f.books.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Refactoring, 2nd Edition", fetched.Title)

	_, err = f.books.Update(ctx, created.ID, UpdateBookInput{PublicationYear: SetTo(3000)})
	require.ErrorIs(t, err, ErrInvalidPublicationYear)

	_, err = f.books.Update(ctx, created.ID+100, UpdateBookInput{Title: strPtr("x")})
	require.ErrorIs(t, err, ErrBookNotFound)
}

func TestBookServiceUpdateClearsNullableFields(t *testing.T) {
	f := newCatalogFixture(t, cache.NewMemoryStore(0))
	ctx := context.Background()

	created, err := f.books.Create(ctx, CreateBookInput{
		Title:           "The Pragmatic Programmer",
		Author:          "Andrew Hunt",
		ISBN:            strPtr("9780201616224"),
		Description:     strPtr("desc"),
		PublicationYear: intPtr(2020),
	})
	require.NoError(t, err)

	updated, err := f.books.Update(ctx, created.ID, UpdateBookInput{
		ISBN:            Null[string](),
		Description:     Null[string](),
		PublicationYear: Null[int](),
	})
	require.NoError(t, err)
	require.Nil(t, updated.ISBN)
	require.Nil(t, updated.Description)
	require.Nil(t, updated.PublicationYear)
	require.Equal(t, "The Pragmatic Programmer", updated.Title)

	// The cleared isbn can be taken by another book.
	_, err = f.books.Create(ctx, CreateBookInput{Title: "Other", Author: "B", ISBN: strPtr("9780201616224")})
	require.NoError(t, err)

	// Unset fields stay as they are.
	updated, err = f.books.Update(ctx, created.ID, UpdateBookInput{Description: SetTo("back")})
	require.NoError(t, err)
	require.Equal(t, "back", *updated.Description)
	require.Nil(t, updated.PublicationYear)
}

func TestBookServiceListCacheInvalidatedOnCreate(t *testing.T) {
	f := newCatalogFixture(t, cache.NewMemoryStore(0))
	ctx := context.Background()

	_, err := f.books.Create(ctx, CreateBookInput{Title: "One", Author: "A"})
	require.NoError(t, err)

	page, err := f.books.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.True(t, f.cached(t, cache.BooksListKey(0, 10)))

	created, err := f.books.Create(ctx, CreateBookInput{Title: "Two", Author: "B"})
	require.NoError(t, err)

	page, err = f.books.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, created.ID, page[1].ID)
}

func TestBookServiceListServesCachedPage(t *testing.T) {
	f := newCatalogFixture(t, cache.NewMemoryStore(0))
	ctx := context.Background()

	_, err := f.books.Create(ctx, CreateBookInput{Title: "One", Author: "A"})
	require.NoError(t, err)
	_, err = f.books.List(ctx, 0, 10)
	require.NoError(t, err)

	// A write that bypasses the service is invisible until the entry expires.
	require.NoError(t, f.db.Create(&models.Book{Title: "Hidden", Author: "B"}).Error)

	page, err := f.books.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)

	page, err = f.books.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "Hidden", page[0].Title)
}

func TestBookServiceListPagination(t *testing.T) {
	f := newCatalogFixture(t, nil)
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		_, err := f.books.Create(ctx, CreateBookInput{Title: title, Author: "X"})
		require.NoError(t, err)
	}

	page, err := f.books.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "B", page[0].Title)

	empty, err := f.books.List(ctx, 10, 10)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	_, err = f.books.List(ctx, -1, 10)
	require.ErrorIs(t, err, ErrInvalidPagination)
	_, err = f.books.List(ctx, 0, 101)
	require.ErrorIs(t, err, ErrInvalidPagination)
	_, err = f.books.List(ctx, 0, 0)
	require.ErrorIs(t, err, ErrInvalidPagination)
}

func TestBookServiceGetWithReviews(t *testing.T) {
	f := newCatalogFixture(t, cache.NewMemoryStore(0))
	ctx := context.Background()

	book, err := f.books.Create(ctx, CreateBookInput{Title: "Nested", Author: "A"})
	require.NoError(t, err)

	nested, err := f.books.GetWithReviews(ctx, book.ID)
	require.NoError(t, err)
	require.NotNil(t, nested.Reviews)
	require.Empty(t, nested.Reviews)

	_, err = f.reviews.Create(ctx, book.ID, CreateReviewInput{ReviewerName: "Ann", Rating: 5})
	require.NoError(t, err)
	_, err = f.reviews.Create(ctx, book.ID, CreateReviewInput{ReviewerName: "Bob", Rating: 3})
	require.NoError(t, err)

	nested, err = f.books.GetWithReviews(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, book.ID, nested.ID)
	require.Len(t, nested.Reviews, 2)
	require.Equal(t, "Ann", nested.Reviews[0].ReviewerName)
	require.True(t, f.cached(t, cache.BookWithReviewsKey(book.ID)))

	_, err = f.books.GetWithReviews(ctx, book.ID+100)
	require.ErrorIs(t, err, ErrBookNotFound)
}

func TestBookServiceDeleteCascades(t *testing.T) {
	f := newCatalogFixture(t, cache.NewMemoryStore(0))
	ctx := context.Background()

	book, err := f.books.Create(ctx, CreateBookInput{Title: "Doomed", Author: "A"})
	require.NoError(t, err)
	review, err := f.reviews.Create(ctx, book.ID, CreateReviewInput{ReviewerName: "Ann", Rating: 4})
	require.NoError(t, err)

	_, err = f.reviews.Get(ctx, review.ID)
	require.NoError(t, err)
	_, err = f.reviews.ListForBook(ctx, book.ID, 0, 10)
	require.NoError(t, err)
	_, err = f.books.Get(ctx, book.ID)
	require.NoError(t, err)

	require.NoError(t, f.books.Delete(ctx, book.ID))

	var remaining int64
	require.NoError(t, f.db.Model(&models.Review{}).Where("book_id = ?", book.ID).Count(&remaining).Error)
	require.Zero(t, remaining)

	require.False(t, f.cached(t, cache.BookKey(book.ID)))
	require.False(t, f.cached(t, cache.ReviewKey(review.ID)))
	require.False(t, f.cached(t, cache.BookReviewsListKey(book.ID, 0, 10)))

	_, err = f.books.Get(ctx, book.ID)
	require.ErrorIs(t, err, ErrBookNotFound)
	_, err = f.reviews.Get(ctx, review.ID)
	require.ErrorIs(t, err, ErrReviewNotFound)

	require.ErrorIs(t, f.books.Delete(ctx, book.ID), ErrBookNotFound)
}

func TestBookServiceSurvivesCacheOutage(t *testing.T) {
	f := newCatalogFixture(t, unreachableStore{})
	ctx := context.Background()

	book, err := f.books.Create(ctx, CreateBookInput{Title: "Resilient", Author: "A"})
	require.NoError(t, err)

	fetched, err := f.books.Get(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, "Resilient", fetched.Title)

	page, err := f.books.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)

	_, err = f.books.Update(ctx, book.ID, UpdateBookInput{Author: strPtr("B")})
	require.NoError(t, err)

	nested, err := f.books.GetWithReviews(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, "B", nested.Author)

	require.NoError(t, f.books.Delete(ctx, book.ID))
}

func TestBookServiceCount(t *testing.T) {
	f := newCatalogFixture(t, nil)
	ctx := context.Background()

	count, err := f.books.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	_, err = f.books.Create(ctx, CreateBookInput{Title: "One", Author: "A"})
	require.NoError(t, err)

	count, err = f.books.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestNewBookServiceRequiresDB(t *testing.T) {
	_, err := NewBookService(nil, nil)
	require.Error(t, err)
}
