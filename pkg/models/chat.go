package models

type ChatPart struct {
	Text string `json:"text"`
}

type ChatMessage struct {
	Role  string     `json:"role"`
	Parts []ChatPart `json:"parts"`
}

// ChatRequest is the chat endpoint body. Image is optional raw base64 or a
// data URL.
type ChatRequest struct {
	History      []ChatMessage `json:"history"`
	CurrentQuery string        `json:"current_query" binding:"required"`
	Language     string        `json:"language"`
	Image        string        `json:"image,omitempty"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
