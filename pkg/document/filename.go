package document

import (
	"regexp"
	"strings"
	"time"
)

const defaultFileCustomer = "לקוח"

var unsafeFileChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// FileName is the download name of a customer's quote, for example
// "הצעת_מחיר_ישראל ישראלי_20260115.pdf". Characters that are not allowed in
// file names are replaced by underscores.
func FileName(customerName string, date time.Time) string {
	name := unsafeFileChars.ReplaceAllString(strings.TrimSpace(customerName), "_")
	if name == "" {
		name = defaultFileCustomer
	}
	return "הצעת_מחיר_" + name + "_" + date.Format("20060102") + ".pdf"
}
