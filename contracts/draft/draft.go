// Package draft holds the wire contract of the draft service.
package draft

const (
	GeneratePath = "/generate"

	DetailEmptyPrompt    = "Prompt cannot be empty."
	DetailInvalidRequest = "Invalid request body."
	DetailGeneration     = "Generation failed."
	DetailCancelled      = "Generation cancelled."
	DetailUnauthorized   = "Not authenticated."
)

// Request is the body of POST /generate.
type Request struct {
	Prompt string `json:"prompt"`
}

// Response is the 200 body of POST /generate.
type Response struct {
	Email string `json:"email"`
}

// ErrorResponse is the body of every non-200 response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
