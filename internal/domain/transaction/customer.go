package transaction

import (
	"sort"
	"strings"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/money"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// BucketStatuses are the statuses the customers view groups by, in display order.
var BucketStatuses = []payment.Status{
	payment.StatusPaid,
	payment.StatusWaitingPayment,
	payment.StatusRefused,
	payment.StatusRefunded,
}

// CustomerGroup is one customer together with every loaded transaction whose customer.id matches.
type CustomerGroup struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	DocumentNumber string        `json:"document_number"`
	PhoneNumbers   []string      `json:"phone_numbers"`
	Transactions   []Transaction `json:"transactions"`
}

// GroupByCustomer puts each transaction under exactly one group, keyed by customer.id.
// Groups keep first-seen order; customer details come from the first transaction seen.
func GroupByCustomer(txs []Transaction) []*CustomerGroup {
	index := make(map[int64]*CustomerGroup)
	groups := make([]*CustomerGroup, 0)
	for _, t := range txs {
		g, ok := index[t.Customer.ID]
		if !ok {
			phones := t.Customer.PhoneNumbers
			if phones == nil {
				phones = []string{}
			}
			g = &CustomerGroup{
				ID:             t.Customer.ID,
				Name:           t.Customer.Name,
				Email:          t.Customer.Email,
				DocumentNumber: t.Customer.DocumentNumber,
				PhoneNumbers:   phones,
			}
			index[t.Customer.ID] = g
			groups = append(groups, g)
		}
		g.Transactions = append(g.Transactions, t)
	}
	return groups
}

// FindCustomer returns the group with the given customer id.
func FindCustomer(groups []*CustomerGroup, id int64) (*CustomerGroup, error) {
	for _, g := range groups {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, ErrCustomerNotFound
}

// HasStatus reports whether any of the customer's transactions has status s.
func (g *CustomerGroup) HasStatus(s payment.Status) bool {
	for _, t := range g.Transactions {
		if t.Status == s {
			return true
		}
	}
	return false
}

// CustomersByStatus lists, per bucket status, the customers with at least one transaction in it.
// A customer appears in every bucket it qualifies for.
type CustomersByStatus map[payment.Status][]*CustomerGroup

func BucketByStatus(groups []*CustomerGroup) CustomersByStatus {
	out := make(CustomersByStatus, len(BucketStatuses))
	for _, s := range BucketStatuses {
		out[s] = []*CustomerGroup{}
	}
	for _, g := range groups {
		for _, s := range BucketStatuses {
			if g.HasStatus(s) {
				out[s] = append(out[s], g)
			}
		}
	}
	return out
}

// SearchCustomers keeps the groups whose name or email contains query (case-insensitive)
// or whose document contains it verbatim. An empty query keeps everything.
func SearchCustomers(groups []*CustomerGroup, query string) []*CustomerGroup {
	if query == "" {
		return groups
	}
	q := strings.ToLower(query)
	out := make([]*CustomerGroup, 0, len(groups))
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.Name), q) ||
			strings.Contains(strings.ToLower(g.Email), q) ||
			(g.DocumentNumber != "" && strings.Contains(g.DocumentNumber, query)) {
			out = append(out, g)
		}
	}
	return out
}

type StatusStats struct {
	Count           int             `json:"count"`
	Total           decimal.Decimal `json:"total"`
	LastTransaction *Transaction    `json:"last_transaction,omitempty"`
}

// StatusStats counts and sums the customer's transactions with status s, or all of
// them when s is All.
// LastTransaction is the newest of all the customer's transactions, whatever its status.
func (g *CustomerGroup) StatusStats(s payment.Status) StatusStats {
	var total money.Cents
	var count int
	var last *Transaction
	for i := range g.Transactions {
		t := &g.Transactions[i]
		if s == All || t.Status == s {
			total += t.Amount
			count++
		}
		if last == nil || t.DateCreated.After(last.DateCreated) {
			last = t
		}
	}
	return StatusStats{Count: count, Total: total.Reais(), LastTransaction: last}
}

type ProductSummary struct {
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

type CustomerDetail struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	DocumentNumber   string           `json:"document_number"`
	Phones           []string         `json:"phones"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	TransactionCount int              `json:"transaction_count"`
	PaidCount        int              `json:"paid_count"`
	AverageTicket    decimal.Decimal  `json:"average_ticket"`
	Products         []ProductSummary `json:"products"`
	Transactions     []Transaction    `json:"transactions"`
}

// Detail builds the customer drill-down: totals, average paid ticket and products bought.
func (g *CustomerGroup) Detail() CustomerDetail {
	var total, paid money.Cents
	var paidCount int
	for _, t := range g.Transactions {
		total += t.Amount
		if t.Status == payment.StatusPaid {
			paid += t.Amount
			paidCount++
		}
	}

	avg := decimal.Zero
	if paidCount > 0 {
		avg = paid.Reais().Div(decimal.NewFromInt(int64(paidCount))).Round(2)
	}

	phones := make([]string, 0, len(g.PhoneNumbers))
	for _, p := range g.PhoneNumbers {
		phones = append(phones, FormatPhone(p))
	}

	txs := append([]Transaction(nil), g.Transactions...)
	SortByNewest(txs)

	return CustomerDetail{
		ID:               g.ID,
		Name:             g.Name,
		Email:            g.Email,
		DocumentNumber:   g.DocumentNumber,
		Phones:           phones,
		TotalAmount:      total.Reais(),
		TransactionCount: len(g.Transactions),
		PaidCount:        paidCount,
		AverageTicket:    avg,
		Products:         g.products(),
		Transactions:     txs,
	}
}

// products aggregates items by title, most bought first.
func (g *CustomerGroup) products() []ProductSummary {
	type acc struct {
		quantity int
		total    money.Cents
	}
	byTitle := make(map[string]*acc)
	for _, t := range g.Transactions {
		for _, it := range t.Items {
			a, ok := byTitle[it.Title]
			if !ok {
				a = &acc{}
				byTitle[it.Title] = a
			}
			a.quantity += it.Quantity
			a.total += it.UnitPrice * money.Cents(it.Quantity)
		}
	}

	out := make([]ProductSummary, 0, len(byTitle))
	for title, a := range byTitle {
		out = append(out, ProductSummary{Title: title, Quantity: a.quantity, Total: a.total.Reais()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// FormatPhone renders Brazilian numbers as (AA) NNNNN-NNNN or (AA) NNNN-NNNN.
// Anything that is not 10 or 11 digits is returned unchanged.
func FormatPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := digits.String()
	switch len(n) {
	case 11:
		return "(" + n[:2] + ") " + n[2:7] + "-" + n[7:]
	case 10:
		return "(" + n[:2] + ") " + n[2:6] + "-" + n[6:]
	default:
		return phone
	}
}
