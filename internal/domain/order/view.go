package order

import (
	"sort"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/money"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// NotAvailable replaces customer fields the provider left empty.
const NotAvailable = "N/A"

const (
	DateTimeLayout = "02/01/2006 15:04:05"
	DayLayout      = "02/01/2006"
)

type View struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Customer  CustomerView    `json:"customer"`
	Shipping  *ShippingView   `json:"shipping"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	Closed    bool            `json:"closed"`
	Items     []ItemView      `json:"items"`
	Charges   []ChargeView    `json:"charges"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

type CustomerView struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Document     string `json:"document"`
	DocumentType string `json:"documentType"`
	Phone        string `json:"phone"`
}

type ShippingView struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Address     Address         `json:"address"`
}

type ItemView struct {
	ID          string          `json:"id"`
	Type        string          `json:"type,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Quantity    int             `json:"quantity"`
	Status      string          `json:"status,omitempty"`
}

type ChargeView struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	Status        string          `json:"status"`
	PaymentMethod payment.Method  `json:"paymentMethod"`
	PaidAt        *string         `json:"paidAt"`
	CreatedAt     string          `json:"createdAt"`
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

// NewView reshapes a provider order for display: reais instead of cents, local timestamps,
// and N/A for missing customer data.
func NewView(o Order, loc *time.Location) View {
	if loc == nil {
		loc = time.UTC
	}
	v := View{
		ID:        o.ID,
		Code:      o.Code,
		Amount:    o.Amount.Reais(),
		Currency:  o.Currency,
		Status:    o.Status,
		Closed:    o.Closed,
		Items:     make([]ItemView, 0, len(o.Items)),
		Charges:   make([]ChargeView, 0, len(o.Charges)),
		CreatedAt: o.CreatedAt.In(loc).Format(DateTimeLayout),
		UpdatedAt: o.UpdatedAt.In(loc).Format(DateTimeLayout),
		Customer: CustomerView{
			Name: NotAvailable, Email: NotAvailable, Document: NotAvailable,
			DocumentType: NotAvailable, Phone: NotAvailable,
		},
	}

	if c := o.Customer; c != nil {
		v.Customer = CustomerView{
			Name:         orNA(c.Name),
			Email:        orNA(c.Email),
			Document:     orNA(c.Document),
			DocumentType: orNA(c.DocumentType),
			Phone:        NotAvailable,
		}
		if c.Phones != nil && c.Phones.MobilePhone != nil {
			p := c.Phones.MobilePhone
			v.Customer.Phone = "+" + p.CountryCode + " (" + p.AreaCode + ") " + p.Number
		}
	}

	if s := o.Shipping; s != nil {
		v.Shipping = &ShippingView{
			Amount:      s.Amount.Reais(),
			Description: s.Description,
			Address:     s.Address,
		}
	}

	for _, it := range o.Items {
		v.Items = append(v.Items, ItemView{
			ID:          it.ID,
			Type:        it.Type,
			Description: it.Description,
			Amount:      it.Amount.Reais(),
			Quantity:    it.Quantity,
			Status:      it.Status,
		})
	}

	for _, ch := range o.Charges {
		cv := ChargeView{
			ID:            ch.ID,
			Amount:        ch.Amount.Reais(),
			PaidAmount:    ch.PaidAmount.Reais(),
			Status:        ch.Status,
			PaymentMethod: ch.PaymentMethod,
			CreatedAt:     ch.CreatedAt.In(loc).Format(DateTimeLayout),
		}
		if ch.PaidAt != nil {
			paid := ch.PaidAt.In(loc).Format(DateTimeLayout)
			cv.PaidAt = &paid
		}
		v.Charges = append(v.Charges, cv)
	}

	return v
}

type Sales struct {
	Total      decimal.Decimal `json:"total"`
	Orders     int             `json:"orders"`
	OrdersList []View          `json:"ordersList"`
	Success    bool            `json:"success"`
}

// SalesTotals sums every order amount and renders each order's view.
func SalesTotals(orders []Order, loc *time.Location) Sales {
	var total money.Cents
	views := make([]View, 0, len(orders))
	for _, o := range orders {
		total += o.Amount
		views = append(views, NewView(o, loc))
	}
	return Sales{
		Total:      total.Reais(),
		Orders:     len(orders),
		OrdersList: views,
		Success:    true,
	}
}

type DailyPoint struct {
	Date   string          `json:"date"`
	Sales  decimal.Decimal `json:"sales"`
	Orders int             `json:"orders"`
}

// DailyTotals groups orders by their local creation day, in chronological order.
func DailyTotals(orders []Order, loc *time.Location) []DailyPoint {
	if loc == nil {
		loc = time.UTC
	}
	type bucket struct {
		day    time.Time
		amount money.Cents
		count  int
	}
	byDay := make(map[time.Time]*bucket)
	for _, o := range orders {
		y, m, d := o.CreatedAt.In(loc).Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		b, ok := byDay[day]
		if !ok {
			b = &bucket{day: day}
			byDay[day] = b
		}
		b.amount += o.Amount
		b.count++
	}

	buckets := make([]*bucket, 0, len(byDay))
	for _, b := range byDay {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].day.Before(buckets[j].day) })

	out := make([]DailyPoint, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, DailyPoint{Date: b.day.Format(DayLayout), Sales: b.amount.Reais(), Orders: b.count})
	}
	return out
}
