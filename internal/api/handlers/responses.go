package handlers

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error" example:"camera not found"`
}

type SuccessResponse struct {
	Message string `json:"message" example:"Camera stopped successfully"`
}
