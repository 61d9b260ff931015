package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateUUID generates a new UUID v4.
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateRequestID generates a request ID (UUID v4).
func GenerateRequestID() string {
	return GenerateUUID()
}

// GenerateQuoteID returns a sortable quote identifier such as
// "Q-20260309-1f0c9a2b". The date is the quote date in UTC.
func GenerateQuoteID(date time.Time) string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "Q-" + date.UTC().Format("20060102") + "-" + short
}

var quoteIDPattern = regexp.MustCompile(`^Q-(\d{8})-[0-9a-f]{8}$`)

// QuoteIDDate returns the UTC date encoded in a quote ID.
func QuoteIDDate(id string) (time.Time, error) {
	m := quoteIDPattern.FindStringSubmatch(id)
	if m == nil {
		return time.Time{}, fmt.Errorf("malformed quote ID %q", id)
	}
	return time.Parse("20060102", m[1])
}

