// Package vietqr builds VietQR bank-transfer image links. The image service
// renders a QR that banking apps scan to prefill the payee, the amount and the
// transfer memo.
package vietqr

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	defaultBaseURL  = "https://img.vietqr.io/image"
	defaultTemplate = "compact2"
)

// Payee is the bank account that receives transfers.
type Payee struct {
	BankCode      string
	AccountNumber string
	AccountName   string
}

// Generator produces QR image URLs for one payee.
type Generator struct {
	payee    Payee
	baseURL  string
	template string
}

func NewGenerator(payee Payee) *Generator {
	return &Generator{payee: payee, baseURL: defaultBaseURL, template: defaultTemplate}
}

// Generate returns the image URL for an arbitrary account. Amounts are whole
// dong; a negative amount is treated as 0.
func Generate(bankCode, accountNumber, accountName string, amount int64, memo string) string {
	g := NewGenerator(Payee{BankCode: bankCode, AccountNumber: accountNumber, AccountName: accountName})
	return g.build(amount, memo)
}

// ForOrder returns the transfer QR for an order. The memo is the order
// number so that incoming transfers can be matched by hand.
func (g *Generator) ForOrder(orderNumber string, total int64) string {
	return g.build(total, orderNumber)
}

func (g *Generator) build(amount int64, memo string) string {
	amount = max(0, amount)
	return fmt.Sprintf("%s/%s-%s-%s.png?amount=%d&addInfo=%s&accountName=%s",
		g.baseURL,
		url.PathEscape(g.payee.BankCode),
		url.PathEscape(g.payee.AccountNumber),
		g.template,
		amount,
		escape(memo),
		escape(g.payee.AccountName),
	)
}

// escape percent-encodes a query value with spaces as %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
