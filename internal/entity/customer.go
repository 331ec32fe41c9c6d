package entity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

const CustomerSourceSquare = "square"

// Customer is a contact that belongs to a business. Email is unique per business
// and always stored lowercase.
type Customer struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewCustomer(businessID, email, name, phone, source string) *Customer {
	now := time.Now().UTC()
	return &Customer{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		Email:      NormalizeEmail(email),
		Name:       strings.TrimSpace(name),
		Phone:      strings.TrimSpace(phone),
		Source:     source,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ContactChanges reports which contact fields an incoming sighting would change.
// Empty incoming values never overwrite stored ones.
func (c *Customer) ContactChanges(name, phone string) (newName, newPhone string, changed bool) {
	newName, newPhone = c.Name, c.Phone

	if n := strings.TrimSpace(name); n != "" && n != c.Name {
		newName = n
		changed = true
	}
	if p := strings.TrimSpace(phone); p != "" && p != c.Phone {
		newPhone = p
		changed = true
	}
	return newName, newPhone, changed
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type CustomerRepositoryInterface interface {
	FindByEmail(ctx context.Context, businessID, email string) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	UpdateContact(ctx context.Context, id, name, phone string) error
}
