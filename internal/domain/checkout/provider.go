package checkout

import (
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/money"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/order"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
)

const (
	CustomerIndividual = "individual"
	CustomerCompany    = "company"

	brazilCountryCode = "55"
	// cpfLength is the size of an individual's document; anything longer is a CNPJ.
	cpfLength = 11

	PixExpiresIn      = 3600
	BoletoDueIn       = 3 * 24 * time.Hour
	BoletoInstruction = "Pagar até a data de vencimento"
)

// Product is the single item every checkout sells.
type Product struct {
	Amount              money.Cents
	Description         string
	Code                string
	StatementDescriptor string
}

func DefaultProduct() Product {
	return Product{
		Amount:              10000,
		Description:         "Produto Teste",
		Code:                "PROD-001",
		StatementDescriptor: "Loja Test",
	}
}

// CustomerRequest is the body of POST /customers.
type CustomerRequest struct {
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Document string       `json:"document"`
	Type     string       `json:"type"`
	Phones   order.Phones `json:"phones"`
}

// CreatedCustomer is the part of the provider's customer response checkout needs.
type CreatedCustomer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type OrderRequest struct {
	CustomerID string         `json:"customer_id"`
	Items      []OrderItem    `json:"items"`
	Payments   []OrderPayment `json:"payments"`
	Billing    OrderBilling   `json:"billing"`
}

type OrderItem struct {
	Amount      money.Cents `json:"amount"`
	Description string      `json:"description"`
	Quantity    int         `json:"quantity"`
	Code        string      `json:"code"`
}

type OrderPayment struct {
	PaymentMethod payment.Method     `json:"payment_method"`
	CreditCard    *CreditCardPayment `json:"credit_card,omitempty"`
	Pix           *PixPayment        `json:"pix,omitempty"`
	Boleto        *BoletoPayment     `json:"boleto,omitempty"`
}

type CreditCardPayment struct {
	Card                Card   `json:"card"`
	Installments        int    `json:"installments"`
	StatementDescriptor string `json:"statement_descriptor"`
}

type Card struct {
	Number     string `json:"number"`
	HolderName string `json:"holder_name"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVV        string `json:"cvv"`
}

type PixPayment struct {
	ExpiresIn int `json:"expires_in"`
}

type BoletoPayment struct {
	DueAt        time.Time `json:"due_at"`
	Instructions string    `json:"instructions"`
}

type OrderBilling struct {
	Address order.Address `json:"address"`
}

// CreatedOrder is the provider's order response: a few parsed fields plus the raw body,
// which is returned to the caller unchanged.
type CreatedOrder struct {
	ID     string
	Status string
	Amount money.Cents
	Body   []byte
}

// CustomerRequest builds the provider customer from a normalized request.
func (r Request) CustomerRequest() CustomerRequest {
	kind := CustomerIndividual
	if len(r.Customer.Document) > cpfLength {
		kind = CustomerCompany
	}
	phone := r.Customer.Phone
	area, number := phone, ""
	if len(phone) > 2 {
		area, number = phone[:2], phone[2:]
	}
	return CustomerRequest{
		Name:     r.Customer.Name,
		Email:    r.Customer.Email,
		Document: r.Customer.Document,
		Type:     kind,
		Phones: order.Phones{
			MobilePhone: &order.Phone{
				CountryCode: brazilCountryCode,
				AreaCode:    area,
				Number:      number,
			},
		},
	}
}

// OrderRequest builds the provider order selling product to customerID, paid with the
// request's method. now anchors the boleto due date.
func (r Request) OrderRequest(customerID string, product Product, now time.Time) OrderRequest {
	pay := OrderPayment{PaymentMethod: r.Payment.PaymentMethod}
	switch r.Payment.PaymentMethod {
	case payment.MethodCreditCard:
		month, year, _ := ParseExpiration(r.Payment.CardExpirationDate)
		installments := r.Payment.Installments
		if installments < 1 {
			installments = 1
		}
		pay.CreditCard = &CreditCardPayment{
			Card: Card{
				Number:     r.Payment.CardNumber,
				HolderName: r.Payment.CardHolderName,
				ExpMonth:   month,
				ExpYear:    year,
				CVV:        r.Payment.CardCVV,
			},
			Installments:        installments,
			StatementDescriptor: product.StatementDescriptor,
		}
	case payment.MethodPix:
		pay.Pix = &PixPayment{ExpiresIn: PixExpiresIn}
	case payment.MethodBoleto:
		pay.Boleto = &BoletoPayment{
			DueAt:        now.Add(BoletoDueIn).UTC(),
			Instructions: BoletoInstruction,
		}
	}

	return OrderRequest{
		CustomerID: customerID,
		Items: []OrderItem{{
			Amount:      product.Amount,
			Description: product.Description,
			Quantity:    1,
			Code:        product.Code,
		}},
		Payments: []OrderPayment{pay},
		Billing: OrderBilling{Address: order.Address{
			Country: r.Billing.Country,
			State:   r.Billing.State,
			City:    r.Billing.City,
			ZipCode: r.Billing.ZipCode,
			Line1:   r.Billing.Line1,
			Line2:   r.Billing.Line2,
		}},
	}
}
