package models

type Genre struct {
	ID   int64  `json:"-" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:256;not null"`
	Slug string `json:"slug" gorm:"uniqueIndex:idx_genres_slug;size:50;not null"`
}

func (Genre) TableName() string {
	return "genres"
}

type Category struct {
	ID   int64  `json:"-" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:256;not null"`
	Slug string `json:"slug" gorm:"uniqueIndex:idx_categories_slug;size:50;not null"`
}

func (Category) TableName() string {
	return "categories"
}
