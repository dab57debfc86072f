package domain

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var vnPrinter = message.NewPrinter(language.Vietnamese)

// vnLocation is Asia/Ho_Chi_Minh; the zone has no DST so a fixed offset is exact.
var vnLocation = time.FixedZone("ICT", 7*60*60)

// FormatVND renders an amount the way the storefront shows it: 250000 -> "250.000đ".
func FormatVND(amount int64) string {
	return vnPrinter.Sprintf("%d", amount) + "đ"
}

// FormatDate renders t as dd/MM/yyyy in Vietnam time.
func FormatDate(t time.Time) string {
	return t.In(vnLocation).Format("02/01/2006")
}
