package repository

import (
	"context"
	"fmt"

	"reviewhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TitleFilter holds the list filters for titles. Zero fields are ignored.
type TitleFilter struct {
	Category string // category slug
	Genre    string // genre slug
	Name     string // case-insensitive substring
	Year     *int
	Search   string // case-insensitive substring on name
}

type TitleRepo struct {
	db *gorm.DB
}

func NewTitleRepo(db *gorm.DB) *TitleRepo {
	return &TitleRepo{db: db}
}

// rating is computed per read and never stored
const titleSelectWithRating = "titles.*, (SELECT CAST(AVG(reviews.score) AS FLOAT) FROM reviews WHERE reviews.title_id = titles.id) AS rating"

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Select(titleSelectWithRating).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name asc") })
}

func (f TitleFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Category != "" {
		db = db.Where("titles.category_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Model(&models.Category{}).Select("id").Where("slug = ?", f.Category))
	}
	if f.Genre != "" {
		db = db.Where("titles.id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Table("genre_title").
				Select("genre_title.title_id").
				Joins("JOIN genres ON genres.id = genre_title.genre_id").
				Where("genres.slug = ?", f.Genre))
	}
	if f.Name != "" {
		db = db.Where("LOWER(titles.name) LIKE ? ESCAPE '\\'", containsPattern(f.Name))
	}
	if f.Search != "" {
		db = db.Where("LOWER(titles.name) LIKE ? ESCAPE '\\'", containsPattern(f.Search))
	}
	if f.Year != nil {
		db = db.Where("titles.year = ?", *f.Year)
	}
	return db
}

// List returns one page of titles ordered by id, plus the total match count.
func (r *TitleRepo) List(ctx context.Context, filter TitleFilter, limit, offset int) ([]models.Title, int64, error) {
	var list []models.Title
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Title{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Title{}).
		Scopes(filter.scope, withRelations).
		Order("titles.id asc").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("get titles: %w", err)
	}
	return list, total, nil
}

func (r *TitleRepo) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	if err := r.db.WithContext(ctx).Model(&models.Title{}).Scopes(withRelations).Where("titles.id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// Exists returns ErrNotFound when no title has the given id.
func (r *TitleRepo) Exists(ctx context.Context, id int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check title: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// Create inserts the title and links it to genres, which must already exist.
func (r *TitleRepo) Create(ctx context.Context, t *models.Title, genres []models.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			return fmt.Errorf("create title: %w", translateError(err))
		}
		if err := linkGenres(tx, t.ID, genres); err != nil {
			return err
		}
		t.Genres = genres
		return nil
	})
}

// Update saves scalar fields and the category. A nil genres slice keeps the
// current links; a non-nil one replaces them.
func (r *TitleRepo) Update(ctx context.Context, t *models.Title, genres []models.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(t).Error; err != nil {
			return fmt.Errorf("update title: %w", translateError(err))
		}
		if genres == nil {
			return nil
		}
		if err := tx.Where("title_id = ?", t.ID).Delete(&models.GenreTitle{}).Error; err != nil {
			return fmt.Errorf("unlink genres: %w", err)
		}
		if err := linkGenres(tx, t.ID, genres); err != nil {
			return err
		}
		t.Genres = genres
		return nil
	})
}

// Delete removes the title with its reviews, their comments and genre links.
func (r *TitleRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews := tx.Session(&gorm.Session{NewDB: true}).Model(&models.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviews).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.GenreTitle{}).Error; err != nil {
			return fmt.Errorf("unlink genres: %w", err)
		}
		result := tx.Delete(&models.Title{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete title: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func linkGenres(tx *gorm.DB, titleID int64, genres []models.Genre) error {
	if len(genres) == 0 {
		return nil
	}
	links := make([]models.GenreTitle, 0, len(genres))
	for _, g := range genres {
		links = append(links, models.GenreTitle{TitleID: titleID, GenreID: g.ID})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
		return fmt.Errorf("link genres: %w", err)
	}
	return nil
}
