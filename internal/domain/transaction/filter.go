package transaction

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
)

// All disables the status or payment method predicate.
const All = "all"

// DateLayout is the layout of the start/end date filters (HTML date inputs).
const DateLayout = "2006-01-02"

type Filters struct {
	Status        string
	PaymentMethod string
	// StartDate is inclusive from its first instant.
	StartDate time.Time
	// EndDate covers its whole day, up to 23:59:59.
	EndDate time.Time
	Search  string
}

// ParseDate reads a YYYY-MM-DD filter date at midnight in loc. Empty input yields the zero time.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("transaction: invalid date %q: %w", s, err)
	}
	return d, nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// Match reports whether t satisfies every active predicate of f.
func (f Filters) Match(t Transaction) bool {
	if f.Status != "" && f.Status != All && t.Status != payment.Status(f.Status) {
		return false
	}
	if f.PaymentMethod != "" && f.PaymentMethod != All && t.PaymentMethod != payment.Method(f.PaymentMethod) {
		return false
	}
	if !f.StartDate.IsZero() && t.DateCreated.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && t.DateCreated.After(endOfDay(f.EndDate)) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		return strings.Contains(strconv.FormatInt(t.ID, 10), q) ||
			strings.Contains(strings.ToLower(t.Customer.Name), q) ||
			strings.Contains(strings.ToLower(t.Customer.Email), q) ||
			(t.Customer.DocumentNumber != "" && strings.Contains(t.Customer.DocumentNumber, q))
	}
	return true
}

// Filter returns the transactions matching f, preserving order.
func Filter(txs []Transaction, f Filters) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
