package domain

import "time"

// Event types
const (
	EventTypePaymentRecorded   = "payment.recorded"
	EventTypeSaleCreated       = "sale.created"
	EventTypeSaleCompleted     = "sale.completed"
	EventTypePurchaseCreated   = "purchase.created"
	EventTypePurchaseCompleted = "purchase.completed"
)

// Aggregate types
const (
	AggregateTypeSale        = "sale"
	AggregateTypePurchase    = "purchase"
	AggregateTypeInstallment = "installment"
)

// CompletedEventType returns the completion event for a parent kind.
func CompletedEventType(kind ParentKind) string {
	if kind == ParentPurchase {
		return EventTypePurchaseCompleted
	}
	return EventTypeSaleCompleted
}

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// PaymentRecordedEvent payload
type PaymentRecordedEvent struct {
	InstallmentID  int64  `json:"installment_id"`
	PlanID         int64  `json:"plan_id"`
	ParentKind     string `json:"parent_kind"`
	ParentID       int64  `json:"parent_id"`
	Amount         string `json:"amount"`
	RemainingPrice string `json:"remaining_price"`
	PaidAt         string `json:"paid_at"`
}

// ParentCompletedEvent payload for sale.completed and purchase.completed
type ParentCompletedEvent struct {
	ParentKind string `json:"parent_kind"`
	ParentID   int64  `json:"parent_id"`
	PlanID     int64  `json:"plan_id,omitempty"`
	Total      string `json:"total"`
	EventAt    string `json:"event_at"`
}

// TradeCreatedEvent payload for sale.created and purchase.created
type TradeCreatedEvent struct {
	ParentKind    string `json:"parent_kind"`
	ParentID      int64  `json:"parent_id"`
	CustomerID    int64  `json:"customer_id"`
	PaymentOption string `json:"payment_option"`
	Total         string `json:"total"`
}
