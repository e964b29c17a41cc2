package models

// Review belongs to exactly one Book and is removed with it.
type Review struct {
	BaseModel

	BookID       uint    `gorm:"not null;index:idx_reviews_book_id" json:"book_id"`
	ReviewerName string  `gorm:"size:255;not null" json:"reviewer_name"`
	Rating       int     `gorm:"not null;check:chk_reviews_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Comment      *string `gorm:"type:text" json:"comment"`
}
