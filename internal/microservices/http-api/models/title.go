package models

type Title struct {
	ID          int64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string   `json:"name" gorm:"size:256;not null;index"`
	Year        *int     `json:"year"`
	Description string   `json:"description" gorm:"type:text"`
	CategoryID  *int64   `json:"-" gorm:"index"`
	Rating      *float64 `json:"rating" gorm:"->;-:migration"` // AVG(reviews.score), filled by the read query

	// Associations
	Category *Category `json:"category" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL;"`
	Genres   []Genre   `json:"genre" gorm:"many2many:genre_title;constraint:OnDelete:CASCADE;"`
}

func (Title) TableName() string {
	return "titles"
}

// explicit join model so the importer can write links directly
type GenreTitle struct {
	TitleID int64 `json:"title_id" gorm:"primaryKey"`
	GenreID int64 `json:"genre_id" gorm:"primaryKey;index"`
}

func (GenreTitle) TableName() string {
	return "genre_title"
}
