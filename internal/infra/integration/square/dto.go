package square

import (
	"fmt"
	"strings"
)

type Customer struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	GivenName    string `json:"given_name"`
	FamilyName   string `json:"family_name"`
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number"`
}

type ListCustomersResponse struct {
	Customers []Customer `json:"customers"`
	Cursor    string     `json:"cursor"`
	Errors    []Error    `json:"errors"`
}

type Error struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

// APIError is returned for any non-2xx Square response.
type APIError struct {
	StatusCode int
	Errors     []Error
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("square api error (status %d)", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		parts = append(parts, se.Code+": "+se.Detail)
	}
	return fmt.Sprintf("square api error (status %d): %s", e.StatusCode, strings.Join(parts, "; "))
}
