// Package importer loads seed data from CSV files into the store. Rows are
// upserted by id, so a load can be repeated.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reviewhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Files lists the known files in dependency order.
var Files = []string{
	"users.csv",
	"category.csv",
	"genre.csv",
	"titles.csv",
	"genre_title.csv",
	"review.csv",
	"comments.csv",
}

type Result struct {
	File    string
	Rows    int
	Skipped bool
}

type Importer struct {
	db  *gorm.DB
	log *slog.Logger
}

func New(db *gorm.DB, log *slog.Logger) *Importer {
	return &Importer{db: db, log: log}
}

// loader turns one CSV row into a model and knows how to upsert it.
type loader struct {
	table    string // table whose id sequence is reset on postgres; empty for none
	build    func(r record) (any, error)
	conflict clause.OnConflict
}

var upsert = clause.OnConflict{UpdateAll: true}

var loaders = map[string]loader{
	"users.csv":       {table: "", build: buildUser, conflict: upsert},
	"category.csv":    {table: "categories", build: buildCategory, conflict: upsert},
	"genre.csv":       {table: "genres", build: buildGenre, conflict: upsert},
	"titles.csv":      {table: "titles", build: buildTitle, conflict: upsert},
	"genre_title.csv": {table: "", build: buildGenreTitle, conflict: clause.OnConflict{DoNothing: true}},
	"review.csv":      {table: "reviews", build: buildReview, conflict: upsert},
	"comments.csv":    {table: "comments", build: buildComment, conflict: upsert},
}

// Load reads every known file from dir, or only the named one, in a single
// transaction. Missing files are skipped with a warning.
func (im *Importer) Load(ctx context.Context, dir, only string) ([]Result, error) {
	files := Files
	if only != "" {
		if _, ok := loaders[only]; !ok {
			return nil, fmt.Errorf("unknown file %q, expected one of: %s", only, strings.Join(Files, ", "))
		}
		files = []string{only}
	}

	results := make([]Result, 0, len(files))
	err := im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range files {
			res, err := im.loadFile(tx, filepath.Join(dir, name), name)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		if tx.Dialector.Name() == "postgres" {
			return resetSequences(tx, files)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (im *Importer) loadFile(tx *gorm.DB, path, name string) (Result, error) {
	res := Result{File: name}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		im.log.Warn("csv file not found, skipping", "file", path)
		res.Skipped = true
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	l := loaders[name]
	reader := csv.NewReader(f)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("%s: read header: %w", name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("%s:%d: %w", name, line, err)
		}
		row := make(record, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			}
		}

		model, err := l.build(row)
		if err != nil {
			return res, fmt.Errorf("%s:%d: %w", name, line, err)
		}
		if err := tx.Clauses(l.conflict).Omit(clause.Associations).Create(model).Error; err != nil {
			return res, fmt.Errorf("%s:%d: upsert: %w", name, line, err)
		}
		res.Rows++
	}

	im.log.Info("csv file loaded", "file", name, "rows", res.Rows)
	return res, nil
}

// resetSequences moves serial sequences past the imported ids.
func resetSequences(tx *gorm.DB, files []string) error {
	for _, name := range files {
		table := loaders[name].table
		if table == "" {
			continue
		}
		q := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)", table)
		if err := tx.Exec(q).Error; err != nil {
			return fmt.Errorf("reset %s id sequence: %w", table, err)
		}
	}
	return nil
}

type record map[string]string

// get returns the first non-empty value among cols.
func (r record) get(cols ...string) string {
	for _, c := range cols {
		if v := strings.TrimSpace(r[c]); v != "" {
			return v
		}
	}
	return ""
}

func (r record) integer(cols ...string) (int64, error) {
	v := r.get(cols...)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: invalid integer %q", cols[0], v)
	}
	return n, nil
}

func (r record) optInteger(cols ...string) (*int64, error) {
	if r.get(cols...) == "" {
		return nil, nil
	}
	n, err := r.integer(cols...)
	return &n, err
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05", "2006-01-02"}

func (r record) timestamp(col string) (time.Time, error) {
	v := r.get(col)
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("column %s: invalid time %q", col, v)
}

func buildUser(r record) (any, error) {
	id := r.get("id")
	if id == "" {
		return nil, errors.New("column id: required")
	}
	role := models.RoleUser
	if name := r.get("role"); name != "" {
		parsed, err := models.ParseRole(name)
		if err != nil {
			return nil, err
		}
		role = parsed
	}
	return &models.User{
		ID:        id,
		Username:  r.get("username"),
		Email:     r.get("email", "username"),
		Role:      role,
		Bio:       r.get("bio"),
		FirstName: r.get("first_name"),
		LastName:  r.get("last_name"),
	}, nil
}

func buildCategory(r record) (any, error) {
	id, err := r.integer("id")
	if err != nil {
		return nil, err
	}
	return &models.Category{ID: id, Name: r.get("name"), Slug: r.get("slug")}, nil
}

func buildGenre(r record) (any, error) {
	id, err := r.integer("id")
	if err != nil {
		return nil, err
	}
	return &models.Genre{ID: id, Name: r.get("name"), Slug: r.get("slug")}, nil
}

func buildTitle(r record) (any, error) {
	id, err := r.integer("id")
	if err != nil {
		return nil, err
	}
	title := &models.Title{ID: id, Name: r.get("name"), Description: r.get("description")}
	if r.get("year") != "" {
		year, err := r.integer("year")
		if err != nil {
			return nil, err
		}
		y := int(year)
		title.Year = &y
	}
	if title.CategoryID, err = r.optInteger("category_id", "category"); err != nil {
		return nil, err
	}
	return title, nil
}

func buildGenreTitle(r record) (any, error) {
	titleID, err := r.integer("title_id")
	if err != nil {
		return nil, err
	}
	genreID, err := r.integer("genre_id")
	if err != nil {
		return nil, err
	}
	return &models.GenreTitle{TitleID: titleID, GenreID: genreID}, nil
}

func buildReview(r record) (any, error) {
	id, err := r.integer("id")
	if err != nil {
		return nil, err
	}
	titleID, err := r.integer("title_id")
	if err != nil {
		return nil, err
	}
	score, err := r.integer("score")
	if err != nil {
		return nil, err
	}
	pubDate, err := r.timestamp("pub_date")
	if err != nil {
		return nil, err
	}
	return &models.Review{
		ID:       id,
		TitleID:  titleID,
		AuthorID: r.get("author_id", "author"),
		Text:     r.get("text"),
		Score:    int(score),
		PubDate:  pubDate,
	}, nil
}

func buildComment(r record) (any, error) {
	id, err := r.integer("id")
	if err != nil {
		return nil, err
	}
	reviewID, err := r.integer("review_id")
	if err != nil {
		return nil, err
	}
	pubDate, err := r.timestamp("pub_date")
	if err != nil {
		return nil, err
	}
	return &models.Comment{
		ID:       id,
		ReviewID: reviewID,
		AuthorID: r.get("author_id", "author"),
		Text:     r.get("text"),
		PubDate:  pubDate,
	}, nil
}
