package dto

import "reviewhub/internal/microservices/http-api/models"

// TitleRequest is used by POST and PUT; category and genres are referenced by slug.
type TitleRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        *int     `json:"year"`
	Description string   `json:"description"`
	Category    *string  `json:"category" binding:"omitempty,max=50,slug"`
	Genre       []string `json:"genre" binding:"required,min=1,dive,max=50,slug"`
}

type TitlePatch struct {
	Name        *string   `json:"name" binding:"omitempty,min=1,max=256"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Category    *string   `json:"category" binding:"omitempty,max=50,slug"`
	Genre       *[]string `json:"genre"`
}

type TitleResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Year        *int           `json:"year"`
	Rating      *float64       `json:"rating"`
	Description string         `json:"description"`
	Genre       []SlugResponse `json:"genre"`
	Category    *SlugResponse  `json:"category"`
}

func FromModelToTitleResponse(t *models.Title) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       FromGenres(t.Genres),
	}
	if t.Category != nil {
		category := FromCategory(t.Category)
		resp.Category = &category
	}
	return resp
}

func FromModelsToTitleResponses(titles []models.Title) []TitleResponse {
	out := make([]TitleResponse, 0, len(titles))
	for i := range titles {
		out = append(out, FromModelToTitleResponse(&titles[i]))
	}
	return out
}
