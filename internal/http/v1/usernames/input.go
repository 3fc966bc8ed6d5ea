package usernames

// AvailabilityInput binds the handle from the path.
type AvailabilityInput struct {
	Username string `param:"username" validate:"required,handle"`
}

// Availability is the response for an availability check.
type Availability struct {
	Username  string `json:"username"  cbor:"username"  example:"alex"`
	Available bool   `json:"available" cbor:"available" example:"true"`
}
