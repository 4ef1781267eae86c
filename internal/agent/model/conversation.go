package model

import "strings"

// Turn sources accepted on the inbound request.
const (
	SourceUser  = "user"
	SourceAgent = "agent"
)

// ChatTurn is one inbound chat message.
type ChatTurn struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// IsUser reports whether the turn was written by the end user.
func (t ChatTurn) IsUser() bool {
	return strings.EqualFold(strings.TrimSpace(t.Source), SourceUser)
}

// ChatRequest is the single inbound request type of a workflow run.
type ChatRequest struct {
	Messages []ChatTurn `json:"messages"`
}

// FinalResponse is the single externally visible artifact of one workflow run.
type FinalResponse struct {
	Text        string         `json:"final_response"`
	Intent      Intent         `json:"intent"`
	Diagnostics map[string]any `json:"diagnostics,omitempty"`
}
