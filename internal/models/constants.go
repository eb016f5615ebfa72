package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
	// PaymentPartial is declared for record compatibility; no workflow
	// produces it. Payment settlement is binary.
	PaymentPartial = "partial"
)

const (
	MethodCash      = "cash"
	MethodTransfer  = "transfer"
	MethodInsurance = "insurance"
	MethodCard      = "card"
	MethodPending   = "pending"
)

// Booking workflow steps, persisted per session.
const (
	StepSelectingDate   = "selecting_date"
	StepSelectingTime   = "selecting_time"
	StepEnteringDetails = "entering_details"
	StepCommitting      = "committing"
	StepConfirmed       = "confirmed"
	StepFailed          = "failed"
)

const (
	// DateLayout is the canonical calendar-date format of the store.
	DateLayout = "2006-01-02"

	// TimeLayout is the canonical slot label format.
	TimeLayout = "15:04"

	// DefaultSessionTTL bounds how long an abandoned booking session
	// survives in the state store, in seconds.
	DefaultSessionTTL = 30 * 60

	// DefaultMaxBookingDays limits how far ahead clients may book.
	DefaultMaxBookingDays = 90

	// WorkerQueueSize is the in-memory export queue capacity.
	WorkerQueueSize = 256
)

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether m is a known settlement method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case MethodCash, MethodTransfer, MethodInsurance, MethodCard:
		return true
	}
	return false
}

// CanTransition encodes the admin status machine: pending→confirmed→completed,
// cancellation from pending or confirmed only. Completed is terminal.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	}
	return false
}
