package checkout

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
)

func validRequest(method payment.Method) Request {
	r := Request{
		Customer: CustomerInput{Name: " Ana ", Email: "ana@example.com", Document: "123.456.789-01", Phone: "(11) 98888-7777"},
		Billing:  BillingInput{Line1: "Rua A, 10", ZipCode: "01001000", City: "São Paulo", State: "SP"},
		Payment:  PaymentInput{PaymentMethod: method},
	}
	if method == payment.MethodCreditCard {
		r.Payment.CardNumber = "4111 1111 1111 1111"
		r.Payment.CardHolderName = "ANA SOUZA"
		r.Payment.CardExpirationDate = "12/30"
		r.Payment.CardCVV = "123"
	}
	return r
}

func TestNormalize(t *testing.T) {
	r := validRequest(payment.MethodCreditCard)
	r.Normalize()

	if r.Customer.Name != "Ana" || r.Customer.Document != "12345678901" || r.Customer.Phone != "11988887777" {
		t.Fatalf("customer = %+v", r.Customer)
	}
	if r.Billing.Country != "BR" {
		t.Fatalf("country = %q", r.Billing.Country)
	}
	if r.Payment.CardNumber != "4111111111111111" || r.Payment.Installments != 1 {
		t.Fatalf("payment = %+v", r.Payment)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		want   string
	}{
		{"valid pix", func(*Request) {}, ""},
		{"missing name", func(r *Request) { r.Customer.Name = "" }, "customer.name"},
		{"bad email", func(r *Request) { r.Customer.Email = "ana" }, "customer.email"},
		{"missing document", func(r *Request) { r.Customer.Document = "" }, "customer.document"},
		{"short phone", func(r *Request) { r.Customer.Phone = "9999" }, "customer.phone"},
		{"unknown method", func(r *Request) { r.Payment.PaymentMethod = "cash" }, "payment.payment_method"},
		{"debit card not offered", func(r *Request) { r.Payment.PaymentMethod = payment.MethodDebitCard }, "payment.payment_method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest(payment.MethodPix)
			tt.mutate(&r)
			r.Normalize()
			err := r.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateCreditCard(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		ok     bool
	}{
		{"valid", func(*Request) {}, true},
		{"four digit year", func(r *Request) { r.Payment.CardExpirationDate = "01/2031" }, true},
		{"twelve installments", func(r *Request) { r.Payment.Installments = 12 }, true},
		{"thirteen installments", func(r *Request) { r.Payment.Installments = 13 }, false},
		{"bad expiration", func(r *Request) { r.Payment.CardExpirationDate = "13/30" }, false},
		{"no cvv", func(r *Request) { r.Payment.CardCVV = "" }, false},
		{"no holder", func(r *Request) { r.Payment.CardHolderName = "  " }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest(payment.MethodCreditCard)
			tt.mutate(&r)
			r.Normalize()
			if err := r.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate = %v, ok want %v", err, tt.ok)
			}
		})
	}
}

func TestParseExpiration(t *testing.T) {
	tests := []struct {
		in          string
		month, year int
		ok          bool
	}{
		{"12/30", 12, 30, true},
		{"01/2031", 1, 2031, true},
		{" 7 / 29 ", 7, 29, true},
		{"1230", 0, 0, false},
		{"00/30", 0, 0, false},
		{"12/3", 0, 0, false},
	}
	for _, tt := range tests {
		m, y, err := ParseExpiration(tt.in)
		if (err == nil) != tt.ok || m != tt.month || y != tt.year {
			t.Errorf("ParseExpiration(%q) = %d, %d, %v", tt.in, m, y, err)
		}
	}
}

func TestCustomerRequest(t *testing.T) {
	r := validRequest(payment.MethodPix)
	r.Normalize()
	c := r.CustomerRequest()
	if c.Type != CustomerIndividual {
		t.Fatalf("type = %q", c.Type)
	}
	p := c.Phones.MobilePhone
	if p == nil || p.CountryCode != "55" || p.AreaCode != "11" || p.Number != "988887777" {
		t.Fatalf("phone = %+v", p)
	}

	r.Customer.Document = "12345678000199"
	if got := r.CustomerRequest().Type; got != CustomerCompany {
		t.Fatalf("cnpj type = %q", got)
	}
}

func TestOrderRequestPerMethod(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	product := DefaultProduct()

	card := validRequest(payment.MethodCreditCard)
	card.Payment.Installments = 3
	card.Normalize()
	o := card.OrderRequest("cus_1", product, now)
	if o.CustomerID != "cus_1" || len(o.Items) != 1 || o.Items[0].Amount != 10000 || o.Items[0].Quantity != 1 {
		t.Fatalf("order = %+v", o)
	}
	cc := o.Payments[0].CreditCard
	if cc == nil || cc.Card.ExpMonth != 12 || cc.Card.ExpYear != 30 || cc.Installments != 3 || cc.StatementDescriptor != "Loja Test" {
		t.Fatalf("credit card = %+v", cc)
	}
	if o.Billing.Address.Country != "BR" || o.Billing.Address.Line1 != "Rua A, 10" {
		t.Fatalf("billing = %+v", o.Billing)
	}

	pix := validRequest(payment.MethodPix)
	pix.Normalize()
	if p := pix.OrderRequest("cus_1", product, now).Payments[0]; p.Pix == nil || p.Pix.ExpiresIn != 3600 || p.CreditCard != nil {
		t.Fatalf("pix = %+v", p)
	}

	boleto := validRequest(payment.MethodBoleto)
	boleto.Normalize()
	b := boleto.OrderRequest("cus_1", product, now).Payments[0].Boleto
	if b == nil || !b.DueAt.Equal(now.Add(72*time.Hour)) || b.Instructions != "Pagar até a data de vencimento" {
		t.Fatalf("boleto = %+v", b)
	}
}

func TestNewRecord(t *testing.T) {
	created := CreatedOrder{ID: "or_1", Status: "paid", Amount: 500, Body: []byte(`{"id":"or_1"}`)}
	rec, err := NewRecord("r1", "key", "cus_1", payment.MethodBoleto, created, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	created.Body[0] = 'X'
	if string(rec.Response) != `{"id":"or_1"}` {
		t.Fatalf("response aliased caller buffer: %s", rec.Response)
	}
	if _, err := NewRecord("r2", "", "cus_1", payment.MethodPix, CreatedOrder{}, time.Now()); err == nil {
		t.Fatal("record without provider order id accepted")
	}
}
