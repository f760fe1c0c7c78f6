package model

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Path    string            `json:"path,omitempty"`
}

// MessageResponse acknowledges an operation that has no payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginResponse is returned by a successful admin login.
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	Admin   Admin  `json:"admin"`
}

// ProfileResponse wraps the authenticated admin's profile.
type ProfileResponse struct {
	Success bool  `json:"success"`
	Admin   Admin `json:"admin"`
}

// ContactCreatedResponse is returned when a visitor submits the contact form.
type ContactCreatedResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Contact ContactMessage `json:"contact"`
}

// HealthResponse reports process and database liveness.
type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}
