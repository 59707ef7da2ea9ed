// Package sla estimates completion dates for service requests.
// Callers supply the submission time; nothing here reads the clock.
package sla

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/peterfiasco/easylawBe-sub000/internal/catalog"
	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

var durationPattern = regexp.MustCompile(`^\s*(\d+)(?:\s*(?:-|to)\s*\d+)?\s*(?:business\s+|working\s+|calendar\s+)?(day|week|month)s?\b`)

// DurationLowerBound parses the low end of a duration text such as
// "3-5 business days" or "2 weeks", returning whole days.
func DurationLowerBound(text string) (int, bool) {
	m := durationPattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	switch m[2] {
	case "week":
		n *= 7
	case "month":
		n *= 30
	}
	return n, true
}

// LookupDays resolves the SLA length for a request.
// The domain matrix wins, then the quoted duration text, then the domain default.
func LookupDays(desc catalog.Descriptor, subtype string, priority domain.Priority, quotedDuration string) int {
	if byPriority, ok := desc.SLADays[subtype]; ok {
		if days, ok := byPriority[priority]; ok && days > 0 {
			return days
		}
	}
	if days, ok := DurationLowerBound(quotedDuration); ok {
		return days
	}
	return desc.DefaultSLADays
}

// EstimateCompletion returns submittedAt plus LookupDays calendar days.
func EstimateCompletion(desc catalog.Descriptor, subtype string, priority domain.Priority, submittedAt time.Time, quotedDuration string) time.Time {
	return submittedAt.AddDate(0, 0, LookupDays(desc, subtype, priority, quotedDuration))
}
