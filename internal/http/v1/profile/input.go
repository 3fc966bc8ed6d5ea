package profile

// ClaimInput for POST /profile.
type ClaimInput struct {
	Username string `json:"username" validate:"required,handle"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Title    string `json:"title"    validate:"max=100"`
	Location string `json:"location" validate:"max=100"`
	Bio      string `json:"bio"      validate:"max=2000"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Website  string `json:"website"  validate:"max=200"`
	GitHub   string `json:"github"   validate:"max=100"`
	LinkedIn string `json:"linkedin" validate:"max=100"`
	Twitter  string `json:"twitter"  validate:"max=100"`
}

// ExperienceInput is one work history entry.
type ExperienceInput struct {
	ID          string `json:"id"                    validate:"required,max=64"`
	Role        string `json:"role"                  validate:"required,max=100"`
	Company     string `json:"company"               validate:"required,max=100"`
	StartDate   string `json:"startDate"             validate:"required,yearmonth"`
	EndDate     string `json:"endDate,omitempty"     validate:"omitempty,yearmonth"`
	Current     bool   `json:"current"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

// EducationInput is one education entry.
type EducationInput struct {
	ID          string `json:"id"                    validate:"required,max=64"`
	Degree      string `json:"degree"                validate:"required,max=100"`
	School      string `json:"school"                validate:"required,max=100"`
	StartDate   string `json:"startDate"             validate:"required,yearmonth"`
	EndDate     string `json:"endDate,omitempty"     validate:"omitempty,yearmonth"`
	Current     bool   `json:"current"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

// DraftInput is the complete editable profile, used for PUT /profile and as
// the draft of preview and reorder requests.
type DraftInput struct {
	Name          string            `json:"name"          validate:"required,min=1,max=100"`
	Title         string            `json:"title"         validate:"max=100"`
	Location      string            `json:"location"      validate:"max=100"`
	Bio           string            `json:"bio"           validate:"max=2000"`
	Email         string            `json:"email"         validate:"omitempty,email"`
	Website       string            `json:"website"       validate:"max=200"`
	GitHub        string            `json:"github"        validate:"max=100"`
	LinkedIn      string            `json:"linkedin"      validate:"max=100"`
	Twitter       string            `json:"twitter"       validate:"max=100"`
	Experience    []ExperienceInput `json:"experience"    validate:"max=50,unique=ID,dive"`
	Education     []EducationInput  `json:"education"     validate:"max=50,unique=ID,dive"`
	Skills        []string          `json:"skills"        validate:"max=100,unique,dive,required,max=50"`
	SectionsOrder []string          `json:"sectionsOrder" validate:"max=20,dive,oneof=header contact experience education skills bio"`
	IsPublic      bool              `json:"isPublic"`
}

// ItemKeyInput names a draggable item.
type ItemKeyInput struct {
	Kind string `json:"kind" validate:"required"`
	Key  string `json:"key"  validate:"required"`
}

// MoveInput is a completed drag. Over is absent when dropped outside a target.
type MoveInput struct {
	Active ItemKeyInput  `json:"active"`
	Over   *ItemKeyInput `json:"over,omitempty"`
}

// ReorderInput for POST /profile/reorder.
type ReorderInput struct {
	Draft DraftInput `json:"draft"`
	Move  MoveInput  `json:"move"`
}
