package profiles

// ListInput holds query parameters for the public directory.
type ListInput struct {
	Cursor string `query:"cursor"`
	Limit  int    `query:"limit"  validate:"omitempty,min=1,max=100"`
}

// GetInput binds the handle from the path.
type GetInput struct {
	Username string `param:"username" validate:"required,handle"`
}
