package handler

// ChatRequest represents the expected JSON structure in the request body.
// Message is a pointer so a missing field can be told apart from "".
type ChatRequest struct {
	Message *string `json:"message"`
	Model   string  `json:"model"`
}
