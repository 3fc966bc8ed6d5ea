package profiles

import (
	"github.com/janisto/cv-builder/internal/platform/timeutil"
	"github.com/janisto/cv-builder/internal/service/layout"
)

// Summary is a directory entry for a public profile.
type Summary struct {
	Username string `json:"username"           cbor:"username"           example:"alex"`
	Name     string `json:"name"               cbor:"name"               example:"Alex Doe"`
	Title    string `json:"title,omitempty"    cbor:"title,omitempty"    example:"Software Engineer"`
	Location string `json:"location,omitempty" cbor:"location,omitempty" example:"Helsinki"`
	URL      string `json:"url"                cbor:"url"                example:"/@alex"`
}

// ListData is one page of the public directory.
type ListData struct {
	Items []Summary `json:"items" cbor:"items"`
	Total int       `json:"total" cbor:"total" example:"42"`
}

// PublicProfile is a published profile with its rendered layout. Only visible
// blocks are included.
type PublicProfile struct {
	Username  string         `json:"username"  cbor:"username"  example:"alex"`
	Name      string         `json:"name"      cbor:"name"      example:"Alex Doe"`
	Blocks    []layout.Block `json:"blocks"    cbor:"blocks"`
	UpdatedAt timeutil.Time  `json:"updatedAt" cbor:"updatedAt" example:"2024-01-15T10:30:00.000Z"`
}
