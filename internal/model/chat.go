package model

// ChatRequest is a visitor's message to the site assistant.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatReply is the assistant's canned answer.
type ChatReply struct {
	Response  string `json:"response"`
	Intent    string `json:"intent"`
	Timestamp string `json:"timestamp"`
}
