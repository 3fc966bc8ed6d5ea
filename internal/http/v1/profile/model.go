package profile

import (
	"github.com/janisto/cv-builder/internal/platform/timeutil"
	"github.com/janisto/cv-builder/internal/service/layout"
)

// Experience is a work history entry in responses.
type Experience struct {
	ID          string `json:"id"                    example:"exp-1"`
	Role        string `json:"role"                  example:"Engineer"`
	Company     string `json:"company"               example:"Acme"`
	StartDate   string `json:"startDate"             example:"2020-01"`
	EndDate     string `json:"endDate,omitempty"     example:"2022-06"`
	Current     bool   `json:"current"               example:"false"`
	Description string `json:"description,omitempty" example:"Built things"`
}

// Education is an education entry in responses.
type Education struct {
	ID          string `json:"id"                    example:"edu-1"`
	Degree      string `json:"degree"                example:"BSc Computer Science"`
	School      string `json:"school"                example:"University of Helsinki"`
	StartDate   string `json:"startDate"             example:"2014-09"`
	EndDate     string `json:"endDate,omitempty"     example:"2018-06"`
	Current     bool   `json:"current"               example:"false"`
	Description string `json:"description,omitempty"`
}

// Profile represents the owner's profile response.
type Profile struct {
	ID            string        `json:"id"            example:"7f0c5c1e-2d4b-4f0e-9d7a-3c2b1a0f9e8d"`
	Username      string        `json:"username"      example:"alex"`
	Name          string        `json:"name"          example:"Alex Doe"`
	Title         string        `json:"title"         example:"Software Engineer"`
	Location      string        `json:"location"      example:"Helsinki"`
	Bio           string        `json:"bio"`
	Email         string        `json:"email"         example:"alex@example.com"`
	Website       string        `json:"website"       example:"alex.dev"`
	GitHub        string        `json:"github"        example:"alex"`
	LinkedIn      string        `json:"linkedin"      example:"alexdoe"`
	Twitter       string        `json:"twitter"       example:"alexdoe"`
	Experience    []Experience  `json:"experience"`
	Education     []Education   `json:"education"`
	Skills        []string      `json:"skills"`
	SectionsOrder []string      `json:"sectionsOrder"`
	IsPublic      bool          `json:"isPublic"      example:"false"`
	CreatedAt     timeutil.Time `json:"createdAt"     example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt     timeutil.Time `json:"updatedAt"     example:"2024-01-15T10:30:00.000Z"`
}

// PreviewData is the composed layout of a draft.
type PreviewData struct {
	Order  []string       `json:"order"`
	Blocks []layout.Block `json:"blocks"`
}

// ReorderData carries the draft after a move and its new layout.
type ReorderData struct {
	Draft  DraftInput     `json:"draft"`
	Blocks []layout.Block `json:"blocks"`
}
