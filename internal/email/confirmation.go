package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/trinhly333/worksheet/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

var funcs = map[string]any{
	"vnd":  domain.FormatVND,
	"date": domain.FormatDate,
}

// Support is the contact block printed at the bottom of customer mail.
type Support struct {
	Email string
	Zalo  string
}

// OrderConfirmation is the data behind the order confirmation template.
type OrderConfirmation struct {
	OrderNumber    string
	CustomerName   string
	CustomerEmail  string
	OrderDate      time.Time
	Items          []domain.LineItem
	Subtotal       int64
	DiscountCode   string
	DiscountAmount int64
	Total          int64
	SupportEmail   string
	SupportZalo    string
}

// Subject is "Xác nhận đơn hàng #<number>".
func (c OrderConfirmation) Subject() string {
	return "Xác nhận đơn hàng #" + c.OrderNumber
}

// NewOrderConfirmation captures what the template needs from an order.
func NewOrderConfirmation(o *domain.Order, support Support) OrderConfirmation {
	c := OrderConfirmation{
		OrderNumber:    o.OrderNumber,
		CustomerName:   o.CustomerInfo.FullName,
		CustomerEmail:  o.CustomerInfo.Email,
		OrderDate:      o.CreatedAt,
		Items:          o.Items,
		Subtotal:       o.Subtotal,
		DiscountAmount: o.DiscountAmount,
		Total:          o.Total,
		SupportEmail:   support.Email,
		SupportZalo:    support.Zalo,
	}
	if o.DiscountCode != nil && o.DiscountAmount > 0 {
		c.DiscountCode = *o.DiscountCode
	}
	return c
}

// Renderer turns template data into ready-to-send messages.
type Renderer struct {
	from string
	html *htmltemplate.Template
	text *texttemplate.Template
}

func NewRenderer(from string) (*Renderer, error) {
	html, err := htmltemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html email templates: %w", err)
	}
	text, err := texttemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text email templates: %w", err)
	}
	return &Renderer{from: from, html: html, text: text}, nil
}

// OrderConfirmation renders the confirmation mail addressed to the customer.
func (r *Renderer) OrderConfirmation(data OrderConfirmation) (*Email, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := r.html.ExecuteTemplate(&htmlBuf, "order_confirmation.html", data); err != nil {
		return nil, fmt.Errorf("render order confirmation html: %w", err)
	}
	if err := r.text.ExecuteTemplate(&textBuf, "order_confirmation.txt", data); err != nil {
		return nil, fmt.Errorf("render order confirmation text: %w", err)
	}

	return &Email{
		To:       []string{data.CustomerEmail},
		From:     r.from,
		Subject:  data.Subject(),
		HTMLBody: htmlBuf.String(),
		TextBody: textBuf.String(),
	}, nil
}
