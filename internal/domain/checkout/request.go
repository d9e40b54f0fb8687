// Package checkout turns the dashboard's checkout form into the provider's customer and order payloads.
package checkout

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
)

var ErrInvalid = errors.New("checkout: invalid request")

// ValidationError lists every problem found in a Request. It matches ErrInvalid.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "checkout: invalid request: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

type Request struct {
	Customer CustomerInput `json:"customer"`
	Billing  BillingInput  `json:"billing"`
	Payment  PaymentInput  `json:"payment"`
}

type CustomerInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
}

type BillingInput struct {
	Line1   string `json:"line_1"`
	Line2   string `json:"line_2"`
	ZipCode string `json:"zip_code"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type PaymentInput struct {
	PaymentMethod      payment.Method `json:"payment_method"`
	CardNumber         string         `json:"card_number,omitempty"`
	CardHolderName     string         `json:"card_holder_name,omitempty"`
	CardExpirationDate string         `json:"card_expiration_date,omitempty"`
	CardCVV            string         `json:"card_cvv,omitempty"`
	Installments       int            `json:"installments,omitempty"`
}

// MaxInstallments bounds credit card installments.
const MaxInstallments = 12

const defaultCountry = "BR"

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize trims input and fills defaults (country BR, one installment).
func (r *Request) Normalize() {
	r.Customer.Name = strings.TrimSpace(r.Customer.Name)
	r.Customer.Email = strings.TrimSpace(r.Customer.Email)
	r.Customer.Document = digits(r.Customer.Document)
	r.Customer.Phone = digits(r.Customer.Phone)
	r.Billing.Country = strings.ToUpper(strings.TrimSpace(r.Billing.Country))
	if r.Billing.Country == "" {
		r.Billing.Country = defaultCountry
	}
	r.Payment.PaymentMethod = payment.Method(strings.TrimSpace(string(r.Payment.PaymentMethod)))
	r.Payment.CardNumber = digits(r.Payment.CardNumber)
	r.Payment.CardExpirationDate = strings.TrimSpace(r.Payment.CardExpirationDate)
	if r.Payment.PaymentMethod == payment.MethodCreditCard && r.Payment.Installments == 0 {
		r.Payment.Installments = 1
	}
}

// Validate rejects requests that cannot be turned into a provider order.
// It expects a normalized request.
func (r Request) Validate() error {
	var problems []string
	add := func(p string) { problems = append(problems, p) }

	if r.Customer.Name == "" {
		add("customer.name is required")
	}
	if r.Customer.Email == "" || !strings.Contains(r.Customer.Email, "@") {
		add("customer.email is invalid")
	}
	if r.Customer.Document == "" {
		add("customer.document is required")
	}
	if len(r.Customer.Phone) < 10 {
		add("customer.phone must have area code and number")
	}

	p := r.Payment
	switch {
	case !p.PaymentMethod.Valid():
		add("payment.payment_method must be one of credit_card, pix, boleto")
	case p.PaymentMethod == payment.MethodCreditCard:
		if p.CardNumber == "" {
			add("payment.card_number is required")
		}
		if strings.TrimSpace(p.CardHolderName) == "" {
			add("payment.card_holder_name is required")
		}
		if p.CardCVV == "" {
			add("payment.card_cvv is required")
		}
		if _, _, err := ParseExpiration(p.CardExpirationDate); err != nil {
			add("payment.card_expiration_date must be MM/YY or MM/YYYY")
		}
		if p.Installments < 1 || p.Installments > MaxInstallments {
			add("payment.installments must be between 1 and " + strconv.Itoa(MaxInstallments))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ParseExpiration splits MM/YY or MM/YYYY into month and year as written.
func ParseExpiration(s string) (month, year int, err error) {
	mm, yy, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return 0, 0, ErrInvalid
	}
	month, err = strconv.Atoi(strings.TrimSpace(mm))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, ErrInvalid
	}
	yy = strings.TrimSpace(yy)
	if len(yy) != 2 && len(yy) != 4 {
		return 0, 0, ErrInvalid
	}
	year, err = strconv.Atoi(yy)
	if err != nil {
		return 0, 0, ErrInvalid
	}
	return month, year, nil
}
