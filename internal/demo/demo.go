// Package demo builds the sample object graph shown by "vardump demo" and
// the demo server. It exercises every analyzer: cycles, shared values,
// embedded structs, getters, iterators, named constants and debug methods.
package demo

import (
	"errors"
	"fmt"
	"html"
	"iter"
	"strings"
	"time"
)

// Status is the lifecycle of an order.
type Status int

// Order states.
const (
	StatusDraft Status = iota
	StatusPlaced
	StatusShipped
	// StatusCancelled orders are kept for auditing.
	StatusCancelled
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusPlaced:
		return "placed"
	case StatusShipped:
		return "shipped"
	case StatusCancelled:
		return "cancelled"
	}
	return "draft"
}

// Audit is embedded by every persisted entity.
type Audit struct {
	CreatedAt time.Time
	createdBy string
}

// CreatedBy returns who created the entity.
func (a Audit) CreatedBy() string { return a.createdBy }

// Customer places orders.
type Customer struct {
	Audit
	ID     int
	Name   string
	Email  string
	Orders []*Order
	vip    bool
}

// GetName returns the display name.
func (c *Customer) GetName() string { return c.Name }

// IsVip reports whether the customer gets priority shipping.
func (c *Customer) IsVip() bool { return c.vip }

// GetContact returns the address used for notifications.
func (c *Customer) GetContact() string { return c.contact() }

func (c *Customer) contact() string { return c.Email }

// Line is one position of an order.
type Line struct {
	SKU      string
	Quantity int
	Price    float64
}

// Order belongs to a customer and points back to it.
type Order struct {
	Audit
	Number   string
	Status   Status
	Customer *Customer
	Lines    []Line
	Tags     map[string]string
	Notify   func(Status) error
	Events   chan string
	total    float64
}

// GetTotal returns the order value.
func (o *Order) GetTotal() float64 { return o.total }

// HasLines reports whether the order has positions.
func (o *Order) HasLines() bool { return len(o.Lines) > 0 }

// All yields the lines keyed by SKU.
func (o *Order) All() iter.Seq2[string, Line] {
	return func(yield func(string, Line) bool) {
		for _, l := range o.Lines {
			if !yield(l.SKU, l) {
				return
			}
		}
	}
}

// Debug summarises the order for the debug methods section.
func (o *Order) Debug() string {
	return fmt.Sprintf("%s: %d lines, %.2f", o.Number, len(o.Lines), o.total)
}

// Validate fails for orders without lines.
func (o *Order) Validate() (bool, error) {
	if len(o.Lines) == 0 {
		return false, errors.New("order has no lines")
	}
	return true, nil
}

func (o *Order) recalculate() {
	o.total = 0
	for _, l := range o.Lines {
		o.total += float64(l.Quantity) * l.Price
	}
}

// Shop is the root of the demo graph.
type Shop struct {
	Name      string
	Customers []*Customer
	// Featured is shared with Customers[0] to show deduplication.
	Featured *Customer
	Settings map[string]any
	Opened   int64
	Logo     []byte
}

// Graph returns a fresh demo graph.
func Graph() *Shop {
	created := time.Date(2024, 3, 14, 9, 26, 53, 0, time.UTC)
	alice := &Customer{
		Audit: Audit{CreatedAt: created, createdBy: "import"},
		ID:    1,
		Name:  "Alice",
		Email: "alice@example.com",
		vip:   true,
	}
	bob := &Customer{
		Audit: Audit{CreatedAt: created.Add(48 * time.Hour), createdBy: "signup"},
		ID:    2,
		Name:  "Bob",
		Email: "bob@example.com",
	}

	first := &Order{
		Audit:    Audit{CreatedAt: created.Add(time.Hour), createdBy: "checkout"},
		Number:   "A-1001",
		Status:   StatusShipped,
		Customer: alice,
		Lines: []Line{
			{SKU: "mug", Quantity: 2, Price: 7.5},
			{SKU: "tea", Quantity: 1, Price: 4.25},
		},
		Tags:   map[string]string{"channel": "web", "coupon": "SPRING"},
		Notify: func(Status) error { return nil },
		Events: make(chan string, 4),
	}
	first.Events <- "paid"
	first.recalculate()

	second := &Order{
		Audit:    Audit{CreatedAt: created.Add(50 * time.Hour), createdBy: "checkout"},
		Number:   "A-1002",
		Status:   StatusDraft,
		Customer: bob,
		Tags:     map[string]string{},
	}

	alice.Orders = []*Order{first}
	bob.Orders = []*Order{second}

	return &Shop{
		Name:      "Corner Tea Shop",
		Customers: []*Customer{alice, bob},
		Featured:  alice,
		Settings: map[string]any{
			"currency": "EUR",
			"payload":  `{"theme":"dark","items":[1,2,3]}`,
			"maxLines": 50,
		},
		Opened: created.Unix(),
		Logo:   []byte("\x89PNG\r\n"),
	}
}

// DebugMethods are the debug methods worth calling on the demo graph.
const DebugMethods = "String,Error,Debug,Validate"

// Page wraps dump fragments in a standalone HTML document.
func Page(title string, fragments ...string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title></head><body>\n")
	for _, f := range fragments {
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString("</body></html>\n")
	return b.String()
}
