package export

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount with Indonesian digit grouping, for example
// "Rp 1.250.000" or "-Rp 5.000".
func FormatRupiah(amount int64) string {
	if amount < 0 {
		return "-Rp " + idPrinter.Sprintf("%d", -amount)
	}
	return "Rp " + idPrinter.Sprintf("%d", amount)
}
