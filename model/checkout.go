package model

type CheckoutInput struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Quantity int     `json:"quantity" validate:"required,min=1,max=10"`
	EventID  uint    `json:"eventId" validate:"required"`
}

type CheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}
