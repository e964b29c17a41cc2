package models

// Book is a catalogue entry. ISBN is stored normalised (no hyphens or spaces).
type Book struct {
	BaseModel

	Title           string  `gorm:"size:255;not null;index" json:"title"`
	Author          string  `gorm:"size:255;not null" json:"author"`
	ISBN            *string `gorm:"column:isbn;size:13;uniqueIndex" json:"isbn"`
	Description     *string `gorm:"type:text" json:"description"`
	PublicationYear *int    `json:"publication_year"`

	Reviews []Review `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// BookWithReviews is the nested representation served by the book reviews endpoint.
type BookWithReviews struct {
	Book
	Reviews []Review `json:"reviews"`
}

// NewBookWithReviews builds the nested shape, never returning a nil review list.
func NewBookWithReviews(book Book, reviews []Review) BookWithReviews {
	if reviews == nil {
		reviews = []Review{}
	}
	book.Reviews = nil
	return BookWithReviews{Book: book, Reviews: reviews}
}
