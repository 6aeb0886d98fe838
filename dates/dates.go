// Package dates parses the natural-language date expressions accepted by
// the analytics query tools and renders human-readable range descriptions.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/metriclane/ga4mcp/errors"
)

const isoDate = "2006-01-02"

var (
	isoRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	usRe       = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	daysAgoRe  = regexp.MustCompile(`^(\d+)\s*days?\s*ago$`)
	weeksAgoRe = regexp.MustCompile(`^(\d+)\s*weeks?\s*ago$`)
	// Months are approximated as 30 days, matching the GA convention.
	monthsAgoRe = regexp.MustCompile(`^(\d+)\s*months?\s*ago$`)
)

// Parser resolves relative date expressions against an injectable clock.
type Parser struct {
	now func() time.Time
}

// New returns a Parser on the real clock.
func New() *Parser {
	return &Parser{now: time.Now}
}

// NewWithClock returns a Parser on a fixed or fake clock. Intended for tests.
func NewWithClock(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// Parse resolves a date expression to YYYY-MM-DD.
//
// Supported: ISO (2024-01-15), US (01/15/2024), today, yesterday,
// NdaysAgo / NweeksAgo / NmonthsAgo (spaces optional), last/this week
// (Monday-anchored), last/this month, this year / ytd, last year.
func (p *Parser) Parse(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errors.NewInvalidRequestError("date string cannot be empty")
	}

	s := strings.ToLower(strings.TrimSpace(raw))
	today := midnight(p.now())

	if isoRe.MatchString(s) {
		if _, err := time.Parse(isoDate, s); err != nil {
			return "", errors.NewInvalidRequestError("invalid date: %q", raw)
		}
		return s, nil
	}

	if m := usRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes overflow (13/45 rolls over); reject that.
		if int(parsed.Month()) != month || parsed.Day() != day || parsed.Year() != year {
			return "", errors.NewInvalidRequestError("invalid date: %q", raw)
		}
		return parsed.Format(isoDate), nil
	}

	switch s {
	case "today":
		return today.Format(isoDate), nil
	case "yesterday":
		return today.AddDate(0, 0, -1).Format(isoDate), nil
	case "last week", "lastweek":
		return startOfWeek(today).AddDate(0, 0, -7).Format(isoDate), nil
	case "this week", "thisweek":
		return startOfWeek(today).Format(isoDate), nil
	case "last month", "lastmonth":
		firstOfCurrent := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return firstOfCurrent.AddDate(0, -1, 0).Format(isoDate), nil
	case "this month", "thismonth":
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).Format(isoDate), nil
	case "this year", "thisyear", "ytd":
		return time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location()).Format(isoDate), nil
	case "last year", "lastyear":
		return time.Date(today.Year()-1, 1, 1, 0, 0, 0, 0, today.Location()).Format(isoDate), nil
	}

	if m := daysAgoRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return today.AddDate(0, 0, -n).Format(isoDate), nil
	}
	if m := weeksAgoRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return today.AddDate(0, 0, -7*n).Format(isoDate), nil
	}
	if m := monthsAgoRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return today.AddDate(0, 0, -30*n).Format(isoDate), nil
	}

	return "", errors.NewInvalidRequestError(
		"could not parse date: %q (supported: YYYY-MM-DD, MM/DD/YYYY, today, yesterday, "+
			"NdaysAgo, NweeksAgo, NmonthsAgo, last week, last month, this week, this month, ytd)", raw)
}

// ParseRange parses both endpoints and validates start <= end.
func (p *Parser) ParseRange(startRaw, endRaw string) (string, string, error) {
	start, err := p.Parse(startRaw)
	if err != nil {
		return "", "", err
	}
	end, err := p.Parse(endRaw)
	if err != nil {
		return "", "", err
	}

	startDay, _ := time.Parse(isoDate, start)
	endDay, _ := time.Parse(isoDate, end)
	if startDay.After(endDay) {
		return "", "", errors.NewInvalidRequestError(
			"start date (%s) must be before or equal to end date (%s)", start, end)
	}
	return start, end, nil
}

// RangeDescription renders a resolved range for humans: "Today", "Last 7
// days", a single date, or "Aug 01 - Aug 10, 2026 (10 days)". Endpoints
// must already be in YYYY-MM-DD form.
func (p *Parser) RangeDescription(start, end string) string {
	startDay, err1 := time.Parse(isoDate, start)
	endDay, err2 := time.Parse(isoDate, end)
	if err1 != nil || err2 != nil {
		return fmt.Sprintf("%s - %s", start, end)
	}
	today := midnight(p.now())

	days := int(endDay.Sub(startDay).Hours()/24) + 1

	if startDay.Equal(endDay) {
		switch {
		case sameDate(endDay, today):
			return "Today"
		case sameDate(endDay, today.AddDate(0, 0, -1)):
			return "Yesterday"
		default:
			return startDay.Format("January 02, 2006")
		}
	}

	if sameDate(endDay, today) {
		switch days {
		case 7, 14, 28, 30, 90:
			return fmt.Sprintf("Last %d days", days)
		}
	}

	return fmt.Sprintf("%s - %s (%d days)",
		startDay.Format("Jan 02"), endDay.Format("Jan 02, 2006"), days)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// startOfWeek returns the Monday on or before t.
func startOfWeek(t time.Time) time.Time {
	sinceMonday := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -sinceMonday)
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
