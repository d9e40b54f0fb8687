package checkout

import (
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/money"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
)

type CompletedEvent struct {
	RecordID        string
	ProviderOrderID string
	CustomerID      string
	PaymentMethod   payment.Method
	Amount          money.Cents
}

func (CompletedEvent) EventName() string { return "checkout.completed" }

func NewCompletedEvent(r *Record) CompletedEvent {
	return CompletedEvent{
		RecordID:        r.ID,
		ProviderOrderID: r.ProviderOrderID,
		CustomerID:      r.CustomerID,
		PaymentMethod:   r.PaymentMethod,
		Amount:          r.Amount,
	}
}
