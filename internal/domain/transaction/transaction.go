// Package transaction mirrors the provider's v1 transaction records and the
// aggregations the dashboard derives from an already-fetched slice of them.
package transaction

import (
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/money"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
)

var ErrCustomerNotFound = errors.New("transaction: customer not found")

type Transaction struct {
	Object               string         `json:"object,omitempty"`
	ID                   int64          `json:"id"`
	Status               payment.Status `json:"status"`
	RefuseReason         string         `json:"refuse_reason,omitempty"`
	StatusReason         string         `json:"status_reason,omitempty"`
	AcquirerResponseCode string         `json:"acquirer_response_code,omitempty"`
	AcquirerName         string         `json:"acquirer_name,omitempty"`
	AcquirerID           string         `json:"acquirer_id,omitempty"`
	AuthorizationCode    string         `json:"authorization_code,omitempty"`
	SoftDescriptor       string         `json:"soft_descriptor,omitempty"`
	TID                  int64          `json:"tid,omitempty"`
	NSU                  int64          `json:"nsu,omitempty"`
	DateCreated          time.Time      `json:"date_created"`
	DateUpdated          time.Time      `json:"date_updated"`
	Amount               money.Cents    `json:"amount"`
	AuthorizedAmount     money.Cents    `json:"authorized_amount"`
	PaidAmount           money.Cents    `json:"paid_amount"`
	RefundedAmount       money.Cents    `json:"refunded_amount"`
	Installments         int            `json:"installments"`
	Cost                 money.Cents    `json:"cost"`
	CardHolderName       string         `json:"card_holder_name,omitempty"`
	CardLastDigits       string         `json:"card_last_digits,omitempty"`
	CardFirstDigits      string         `json:"card_first_digits,omitempty"`
	CardBrand            string         `json:"card_brand,omitempty"`
	PaymentMethod        payment.Method `json:"payment_method"`
	PostbackURL          string         `json:"postback_url,omitempty"`
	Customer             Customer       `json:"customer"`
	Items                []Item         `json:"items"`
}

type Customer struct {
	Object         string     `json:"object,omitempty"`
	ID             int64      `json:"id"`
	ExternalID     string     `json:"external_id,omitempty"`
	Type           string     `json:"type,omitempty"`
	Country        string     `json:"country,omitempty"`
	DocumentNumber string     `json:"document_number,omitempty"`
	DocumentType   string     `json:"document_type,omitempty"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PhoneNumbers   []string   `json:"phone_numbers,omitempty"`
	BornAt         string     `json:"born_at,omitempty"`
	Birthday       string     `json:"birthday,omitempty"`
	Gender         string     `json:"gender,omitempty"`
	DateCreated    *time.Time `json:"date_created,omitempty"`
	Documents      []Document `json:"documents,omitempty"`
}

type Document struct {
	Object string `json:"object,omitempty"`
	ID     string `json:"id"`
	Type   string `json:"type"`
	Number string `json:"number"`
}

type Item struct {
	Object    string      `json:"object,omitempty"`
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	UnitPrice money.Cents `json:"unit_price"`
	Quantity  int         `json:"quantity"`
	Category  string      `json:"category,omitempty"`
	Tangible  bool        `json:"tangible"`
	Venue     string      `json:"venue,omitempty"`
	Date      string      `json:"date,omitempty"`
}

func (t Transaction) key() string {
	return strconv.FormatInt(t.ID, 10) + "-" + t.DateCreated.UTC().Format(time.RFC3339Nano)
}

// SortByNewest orders txs by creation date, newest first. Equal dates keep their order.
func SortByNewest(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].DateCreated.After(txs[j].DateCreated)
	})
}

// Merge appends a freshly fetched page to what is already loaded and returns the
// union newest first. Records already present (same id and creation date) are skipped.
func Merge(loaded, page []Transaction) []Transaction {
	out := make([]Transaction, 0, len(loaded)+len(page))
	seen := make(map[string]struct{}, len(loaded)+len(page))
	for _, batch := range [][]Transaction{loaded, page} {
		for _, t := range batch {
			k := t.key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, t)
		}
	}
	SortByNewest(out)
	return out
}
