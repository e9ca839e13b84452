package types

import "time"

// ContactMessage is a contact-form submission queued for mail delivery.
type ContactMessage struct {
	Name       string    `json:"name" validate:"required"`
	Email      string    `json:"email" validate:"required,email"`
	Mobile     string    `json:"mobile,omitempty"`
	Message    string    `json:"message" validate:"required"`
	ReceivedAt time.Time `json:"received_at"`
}
