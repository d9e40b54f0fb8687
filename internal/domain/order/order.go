// Package order mirrors the provider's core v5 orders and reshapes them for the sales views.
package order

import (
	"time"

	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/money"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
)

type Order struct {
	ID        string      `json:"id"`
	Code      string      `json:"code"`
	Amount    money.Cents `json:"amount"`
	Currency  string      `json:"currency"`
	Closed    bool        `json:"closed"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Customer  *Customer   `json:"customer,omitempty"`
	Shipping  *Shipping   `json:"shipping,omitempty"`
	Items     []Item      `json:"items"`
	Charges   []Charge    `json:"charges"`
}

type Customer struct {
	ID           string     `json:"id,omitempty"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Document     string     `json:"document"`
	DocumentType string     `json:"document_type"`
	Type         string     `json:"type,omitempty"`
	Phones       *Phones    `json:"phones,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

type Phones struct {
	MobilePhone *Phone `json:"mobile_phone,omitempty"`
	HomePhone   *Phone `json:"home_phone,omitempty"`
}

type Phone struct {
	CountryCode string `json:"country_code"`
	AreaCode    string `json:"area_code"`
	Number      string `json:"number"`
}

type Shipping struct {
	Amount      money.Cents `json:"amount"`
	Description string      `json:"description"`
	Address     Address     `json:"address"`
}

type Address struct {
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	ZipCode      string `json:"zip_code"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	Neighborhood string `json:"neighborhood,omitempty"`
	Line1        string `json:"line_1,omitempty"`
	Line2        string `json:"line_2,omitempty"`
}

type Item struct {
	ID          string      `json:"id"`
	Type        string      `json:"type,omitempty"`
	Code        string      `json:"code,omitempty"`
	Description string      `json:"description"`
	Amount      money.Cents `json:"amount"`
	Quantity    int         `json:"quantity"`
	Status      string      `json:"status,omitempty"`
}

type Charge struct {
	ID            string         `json:"id"`
	Code          string         `json:"code,omitempty"`
	Amount        money.Cents    `json:"amount"`
	Status        string         `json:"status"`
	PaymentMethod payment.Method `json:"payment_method"`
	PaidAmount    money.Cents    `json:"paid_amount"`
	PaidAt        *time.Time     `json:"paid_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Paging is the v5 list envelope's paging block.
type Paging struct {
	Total    int    `json:"total"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
}
