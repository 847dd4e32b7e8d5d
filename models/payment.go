package models

import "gorm.io/gorm"

// Payment types and statuses. Balances are never stored; they are derived by
// summing matching rows at read time.
const (
	PaymentTypeEarning    = "earning"
	PaymentTypeWithdrawal = "withdrawal"
	PaymentTypeDeposit    = "deposit"

	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment is one flat ledger row.
// - earning: money paid to a worker on a project (worker + employer set)
// - withdrawal: worker cashing out (worker set)
// - deposit: employer funding their wallet (employer set)
type Payment struct {
	gorm.Model

	WorkerID   *uint `gorm:"index" json:"worker_id,omitempty"`
	EmployerID *uint `gorm:"index" json:"employer_id,omitempty"`
	ProjectID  *uint `gorm:"index" json:"project_id,omitempty"`

	Amount   float64 `gorm:"not null" json:"amount"`
	Currency string  `gorm:"default:'NGN'" json:"currency"`
	Type     string  `gorm:"not null;index" json:"type"`
	Status   string  `gorm:"default:'completed';index" json:"status"`
	Note     string  `json:"note,omitempty"`

	// Set on deposits funded through Stripe
	StripePaymentIntentID string `gorm:"index" json:"stripe_payment_intent_id,omitempty"`

	// Relations
	Worker   *User    `json:"worker,omitempty"`
	Employer *User    `json:"employer,omitempty"`
	Project  *Project `json:"project,omitempty"`
}
