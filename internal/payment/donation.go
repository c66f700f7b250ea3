package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amanah/zakat-service/internal/model"
	"github.com/amanah/zakat-service/internal/zakat"
)

// DonationRequest is a user-entered gift. Amounts are flat; no formula applies.
type DonationRequest struct {
	UserID    string
	Kind      string
	Amount    decimal.Decimal
	Recipient string
	Note      string
	GivenAt   time.Time
}

var donationKinds = map[string]bool{
	model.DonationInfaq:    true,
	model.DonationShadaqoh: true,
	model.DonationZakat:    true,
}

// NewDonation validates r and builds a storable donation. A zero GivenAt
// defaults to now.
func NewDonation(r DonationRequest, now time.Time) (*model.Donation, error) {
	if r.UserID == "" {
		return nil, zakat.Invalid("user_id", zakat.ReasonRequired)
	}
	if !donationKinds[r.Kind] {
		return nil, zakat.Invalid("kind", zakat.ReasonOutOfRange)
	}
	if !r.Amount.IsPositive() {
		return nil, zakat.Invalid("amount", zakat.ReasonNotPositive)
	}
	if r.Recipient != "" && !model.Asnaf[r.Recipient] {
		return nil, zakat.Invalid("recipient", zakat.ReasonOutOfRange)
	}

	given := r.GivenAt
	if given.IsZero() {
		given = now
	}
	return &model.Donation{
		ID:        uuid.New().String(),
		UserID:    r.UserID,
		Kind:      r.Kind,
		Amount:    r.Amount,
		Recipient: r.Recipient,
		Note:      r.Note,
		GivenAt:   given,
	}, nil
}
