package analytics

import (
	"fmt"
	"strings"
	"time"
)

type Period string

const (
	PeriodToday       Period = "today"
	PeriodYesterday   Period = "yesterday"
	PeriodThisWeek    Period = "this_week"
	PeriodLastWeek    Period = "last_week"
	PeriodThisMonth   Period = "this_month"
	PeriodLastMonth   Period = "last_month"
	PeriodThisQuarter Period = "this_quarter"
	PeriodLastQuarter Period = "last_quarter"
	PeriodThisYear    Period = "this_year"
	PeriodLastYear    Period = "last_year"
	PeriodAll         Period = "all"
	PeriodCustom      Period = "custom"
)

var periodLabels = map[Period]string{
	PeriodToday:       "hôm nay",
	PeriodYesterday:   "hôm qua",
	PeriodThisWeek:    "tuần này",
	PeriodLastWeek:    "tuần trước",
	PeriodThisMonth:   "tháng này",
	PeriodLastMonth:   "tháng trước",
	PeriodThisQuarter: "quý này",
	PeriodLastQuarter: "quý trước",
	PeriodThisYear:    "năm nay",
	PeriodLastYear:    "năm trước",
	PeriodAll:         "toàn thời gian",
	PeriodCustom:      "tùy chỉnh",
}

func (p Period) Label() string {
	if l, ok := periodLabels[p]; ok {
		return l
	}
	return string(p)
}

// Range is the half-open interval [From, To). A zero From is unbounded.
type Range struct {
	Period Period
	From   time.Time
	To     time.Time
}

func (r Range) String() string {
	if r.From.IsZero() {
		return "đến " + r.To.Format("02/01/2006")
	}
	return fmt.Sprintf("%s - %s", r.From.Format("02/01/2006"), r.To.Add(-time.Nanosecond).Format("02/01/2006"))
}

const dateLayout = "2006-01-02"

// ResolveRange turns a period name or explicit dates into a range relative
// to now, in now's location. Explicit dates win over the period; an explicit
// end date is inclusive. Unknown or empty periods mean today.
func ResolveRange(period Period, startDate, endDate string, now time.Time) (Range, error) {
	loc := now.Location()

	if startDate != "" {
		from, err := time.ParseInLocation(dateLayout, startDate, loc)
		if err != nil {
			return Range{}, fmt.Errorf("invalid start date %q: %w", startDate, err)
		}
		to := now
		if endDate != "" {
			end, err := time.ParseInLocation(dateLayout, endDate, loc)
			if err != nil {
				return Range{}, fmt.Errorf("invalid end date %q: %w", endDate, err)
			}
			to = end.AddDate(0, 0, 1)
		}
		if !to.After(from) {
			return Range{}, fmt.Errorf("end date before start date")
		}
		return Range{Period: PeriodCustom, From: from, To: to}, nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	tomorrow := today.AddDate(0, 0, 1)
	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	quarterStart := time.Date(now.Year(), time.Month((int(now.Month())-1)/3*3+1), 1, 0, 0, 0, 0, loc)
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)

	r := Range{Period: period}
	switch period {
	case PeriodYesterday:
		r.From, r.To = today.AddDate(0, 0, -1), today
	case PeriodThisWeek:
		r.From, r.To = weekStart, tomorrow
	case PeriodLastWeek:
		r.From, r.To = weekStart.AddDate(0, 0, -7), weekStart
	case PeriodThisMonth:
		r.From, r.To = monthStart, tomorrow
	case PeriodLastMonth:
		r.From, r.To = monthStart.AddDate(0, -1, 0), monthStart
	case PeriodThisQuarter:
		r.From, r.To = quarterStart, tomorrow
	case PeriodLastQuarter:
		r.From, r.To = quarterStart.AddDate(0, -3, 0), quarterStart
	case PeriodThisYear:
		r.From, r.To = yearStart, tomorrow
	case PeriodLastYear:
		r.From, r.To = yearStart.AddDate(-1, 0, 0), yearStart
	case PeriodAll:
		r.To = tomorrow
	default:
		r.Period = PeriodToday
		r.From, r.To = today, tomorrow
	}
	return r, nil
}

var periodWords = []struct {
	word   string
	period Period
}{
	{"hôm qua", PeriodYesterday},
	{"hôm nay", PeriodToday},
	{"tuần trước", PeriodLastWeek},
	{"tuần này", PeriodThisWeek},
	{"tháng trước", PeriodLastMonth},
	{"tháng này", PeriodThisMonth},
	{"quý trước", PeriodLastQuarter},
	{"quý này", PeriodThisQuarter},
	{"quý", PeriodThisQuarter},
	{"năm trước", PeriodLastYear},
	{"năm ngoái", PeriodLastYear},
	{"năm nay", PeriodThisYear},
	{"toàn bộ", PeriodAll},
	{"tất cả", PeriodAll},
	{"last week", PeriodLastWeek},
	{"this week", PeriodThisWeek},
	{"last month", PeriodLastMonth},
	{"this month", PeriodThisMonth},
	{"last quarter", PeriodLastQuarter},
	{"this quarter", PeriodThisQuarter},
	{"quarter", PeriodThisQuarter},
	{"last year", PeriodLastYear},
	{"this year", PeriodThisYear},
	{"yesterday", PeriodYesterday},
	{"today", PeriodToday},
}

// PeriodFromText finds a relative period phrase in lowercased text. A bare
// "quý" means the current quarter; "quý khách" is a form of address.
func PeriodFromText(lower string) Period {
	lower = strings.ReplaceAll(lower, "quý khách", "")
	for _, pw := range periodWords {
		if strings.Contains(lower, pw.word) {
			return pw.period
		}
	}
	return PeriodToday
}
