package order

import "time"

// Query narrows an order listing. Zero fields are not sent.
type Query struct {
	Page         int
	Size         int
	CreatedSince time.Time
	CreatedUntil time.Time
}

type Page struct {
	Orders []Order
	Paging Paging
}

type CustomerPage struct {
	Customers []Customer
	Paging    Paging
}
