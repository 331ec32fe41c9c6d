package postmark

import (
	"fmt"
	"time"
)

type sendEmailRequest struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HtmlBody      string `json:"HtmlBody,omitempty"`
	TextBody      string `json:"TextBody,omitempty"`
	Tag           string `json:"Tag,omitempty"`
	MessageStream string `json:"MessageStream,omitempty"`
}

type sendEmailResponse struct {
	To          string    `json:"To"`
	SubmittedAt time.Time `json:"SubmittedAt"`
	MessageID   string    `json:"MessageID"`
	ErrorCode   int       `json:"ErrorCode"`
	Message     string    `json:"Message"`
}

// APIError carries Postmark's error code (e.g. 300 invalid email, 406 inactive recipient).
type APIError struct {
	StatusCode int
	ErrorCode  int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("postmark error %d (status %d): %s", e.ErrorCode, e.StatusCode, e.Message)
}
