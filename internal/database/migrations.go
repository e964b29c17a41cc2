package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/bookreview/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
// Books are migrated first so the reviews foreign key can reference them.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Book{},
		&models.Review{},
	)
}

type seedBook struct {
	book    models.Book
	reviews []models.Review
}

func sampleCatalogue() []seedBook {
	return []seedBook{
		{
			book: models.Book{
				Title:       "The Pragmatic Programmer",
				Author:      "Andrew Hunt",
				ISBN:        ptr("9780201616224"),
				Description: ptr("A classic book for software engineers."),
			},
			reviews: []models.Review{
				{ReviewerName: "Alice", Rating: 5, Comment: ptr("Must-read for every developer!")},
				{ReviewerName: "Bob", Rating: 4, Comment: ptr("Great insights, a bit dated in parts.")},
			},
		},
		{
			book: models.Book{
				Title:       "Clean Code",
				Author:      "Robert C. Martin",
				ISBN:        ptr("9780132350884"),
				Description: ptr("A handbook of agile software craftsmanship."),
			},
			reviews: []models.Review{
				{ReviewerName: "Charlie", Rating: 5, Comment: ptr("Changed how I write code.")},
				{ReviewerName: "Dana", Rating: 4, Comment: ptr("Very useful, but dense.")},
				{ReviewerName: "Eve", Rating: 5, Comment: ptr("A must for clean code practices.")},
			},
		},
		{
			book: models.Book{
				Title:       "Deep Work",
				Author:      "Cal Newport",
				ISBN:        ptr("9781455586691"),
				Description: ptr("Rules for focused success in a distracted world."),
			},
			reviews: []models.Review{
				{ReviewerName: "Frank", Rating: 5, Comment: ptr("Life-changing productivity advice.")},
				{ReviewerName: "Grace", Rating: 4, Comment: ptr("Good, but repetitive.")},
			},
		},
	}
}

// SeedData inserts the sample catalogue when the books table is empty.
// It reports whether anything was inserted.
func SeedData(db *gorm.DB) (bool, error) {
	var count int64
	if err := db.Model(&models.Book{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count books: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range sampleCatalogue() {
			book := entry.book
			if err := tx.Create(&book).Error; err != nil {
				return fmt.Errorf("create book %q: %w", book.Title, err)
			}
			for _, review := range entry.reviews {
				review.BookID = book.ID
				if err := tx.Create(&review).Error; err != nil {
					return fmt.Errorf("create review for %q: %w", book.Title, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return true, nil
}

func ptr[T any](v T) *T {
	return &v
}
