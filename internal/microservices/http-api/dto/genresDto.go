package dto

import "reviewhub/internal/microservices/http-api/models"

// SlugRequest creates a category or a genre.
type SlugRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

// SlugResponse is the representation of a category or a genre.
type SlugResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func FromGenre(g *models.Genre) SlugResponse {
	return SlugResponse{Name: g.Name, Slug: g.Slug}
}

func FromCategory(c *models.Category) SlugResponse {
	return SlugResponse{Name: c.Name, Slug: c.Slug}
}

func FromGenres(genres []models.Genre) []SlugResponse {
	out := make([]SlugResponse, 0, len(genres))
	for i := range genres {
		out = append(out, FromGenre(&genres[i]))
	}
	return out
}

func FromCategories(categories []models.Category) []SlugResponse {
	out := make([]SlugResponse, 0, len(categories))
	for i := range categories {
		out = append(out, FromCategory(&categories[i]))
	}
	return out
}
