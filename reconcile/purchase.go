package reconcile

import (
	"fmt"
	"society_tickets/model"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Purchase is the buyer's intent as read back from a completed checkout
// session.
type Purchase struct {
	SessionID  string  `validate:"required,max=255"`
	Name       string  `validate:"required,max=200"`
	Email      string  `validate:"required,email"`
	Phone      *string `validate:"omitempty,max=50"`
	Quantity   int     `validate:"min=1,max=10"`
	EventID    uint    `validate:"required"`
	AmountPaid int64   `validate:"gte=0"`
}

func (p Purchase) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("purchase %s: %w: %v", p.SessionID, model.ErrValidation, err)
	}
	return nil
}

// SeatName is the attendee name for seat i of a purchase made by buyer.
func SeatName(buyer string, i int) string {
	if i == 0 {
		return buyer
	}
	return fmt.Sprintf("%s (Guest %d)", buyer, i)
}
