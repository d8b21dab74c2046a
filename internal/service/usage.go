package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UsageCookieName is the cookie carrying the device's daily analysis count.
// The value is deliberately client-held state ("date:count"); a user who
// edits their own cookie store can reset it. That is the accepted tradeoff
// of a stateless device quota, not something to patch server-side.
const UsageCookieName = "analysis_usage"

// UsageCookieMaxAge is the cookie lifetime in seconds (24 hours).
const UsageCookieMaxAge = 24 * 60 * 60

// UsageRecord is a device's analysis count for one UTC calendar day
type UsageRecord struct {
	Date  string
	Count int
}

// Today returns the current UTC calendar date as YYYY-MM-DD
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// ParseUsageToken parses an opaque "date:count" usage token against the
// given day. A missing or malformed token, or one dated any other day,
// resets the count to zero; that reset is policy, not an error.
func ParseUsageToken(token, today string) UsageRecord {
	record := UsageRecord{Date: today, Count: 0}

	date, countStr, ok := strings.Cut(token, ":")
	if !ok || date != today {
		return record
	}

	count, err := strconv.Atoi(countStr)
	if err != nil || count < 0 {
		return record
	}

	record.Count = count
	return record
}

// Token renders the record as the opaque cookie value
func (r UsageRecord) Token() string {
	return fmt.Sprintf("%s:%d", r.Date, r.Count)
}
