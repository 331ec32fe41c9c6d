package entity

import "time"

const PlanPro = "pro"

// Subscription mirrors the billing provider's subscription state for a user.
type Subscription struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	Plan             string     `json:"plan"`
	Status           string     `json:"status"` // active, trialing, past_due, canceled...
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (s *Subscription) IsActivePro(now time.Time) bool {
	if s.Plan != PlanPro {
		return false
	}
	if s.Status != "active" && s.Status != "trialing" {
		return false
	}
	if s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.Before(now) {
		return false
	}
	return true
}
