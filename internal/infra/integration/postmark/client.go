package postmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

const (
	DefaultBaseURL = "https://api.postmarkapp.com"
	reviewTag      = "review-request"
)

type Client struct {
	baseURL       string
	serverToken   string
	messageStream string
	http          *http.Client
}

func NewClient(serverToken, baseURL, messageStream string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:       baseURL,
		serverToken:   serverToken,
		messageStream: messageStream,
		http:          &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts a single email and returns Postmark's MessageID.
func (c *Client) Send(ctx context.Context, msg entity.EmailMessage) (string, error) {
	payload := sendEmailRequest{
		From:          msg.From,
		To:            msg.To,
		Subject:       msg.Subject,
		HtmlBody:      msg.HTML,
		TextBody:      msg.Text,
		Tag:           reviewTag,
		MessageStream: c.messageStream,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal postmark email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("postmark request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read postmark response: %w", err)
	}

	var out sendEmailResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || out.ErrorCode != 0 {
		msg := out.Message
		if decodeErr != nil {
			msg = string(body)
		}
		return "", &APIError{StatusCode: resp.StatusCode, ErrorCode: out.ErrorCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode postmark response: %w", decodeErr)
	}
	return out.MessageID, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
