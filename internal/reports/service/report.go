package service

import (
	"cmp"
	"slices"
	"time"

	"courtbook/pkg/model"
)

// BookingReader is the read side of the ledger the reports are built from.
type BookingReader interface {
	ByUser(userID int64) []*model.Booking
	ByDateRange(from, to time.Time) []*model.Booking
	TotalRevenue(from, to time.Time) float64
	BookingCount(from, to time.Time) int
}

type RevenueSummary struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Total   float64   `json:"total"`
	Count   int       `json:"count"`
	Average float64   `json:"average"`
}

type DailyStat struct {
	Date      time.Time `json:"date"`
	Bookings  int       `json:"bookings"`
	Cancelled int       `json:"cancelled"`
	Revenue   float64   `json:"revenue"`
	Hours     float64   `json:"hours"`
}

type CourtUsage struct {
	CourtID  int64   `json:"court_id"`
	Bookings int     `json:"bookings"`
	Hours    float64 `json:"hours"`
	Revenue  float64 `json:"revenue"`
}

type ReportService interface {
	UpcomingForUser(userID int64, now time.Time) []*model.Booking
	Revenue(from, to time.Time) RevenueSummary
	DailyStats(from, to time.Time) []DailyStat
	CourtUsage(from, to time.Time) []CourtUsage
}

type reportService struct {
	bookings BookingReader
}

func NewReportService(bookings BookingReader) ReportService {
	return &reportService{bookings: bookings}
}

// UpcomingForUser lists the user's active bookings that have not started yet,
// soonest first.
func (s *reportService) UpcomingForUser(userID int64, now time.Time) []*model.Booking {
	upcoming := slices.DeleteFunc(s.bookings.ByUser(userID), func(b *model.Booking) bool {
		return !b.IsActive() || !b.StartTime.After(now)
	})
	slices.SortFunc(upcoming, func(a, b *model.Booking) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return upcoming
}

// Revenue counts confirmed and completed bookings only.
func (s *reportService) Revenue(from, to time.Time) RevenueSummary {
	summary := RevenueSummary{
		From:  model.StartOfDay(from),
		To:    model.StartOfDay(to),
		Total: s.bookings.TotalRevenue(from, to),
		Count: s.bookings.BookingCount(from, to),
	}
	if summary.Count > 0 {
		summary.Average = summary.Total / float64(summary.Count)
	}
	return summary
}

// DailyStats returns one entry per calendar day in [from, to], including
// days without bookings.
func (s *reportService) DailyStats(from, to time.Time) []DailyStat {
	first := model.StartOfDay(from)
	last := model.StartOfDay(to.In(from.Location()))
	if last.Before(first) {
		return []DailyStat{}
	}

	var stats []DailyStat
	index := make(map[string]int)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		index[d.Format(time.DateOnly)] = len(stats)
		stats = append(stats, DailyStat{Date: d})
	}

	for _, b := range s.bookings.ByDateRange(from, to) {
		i, ok := index[b.BookingDate.In(from.Location()).Format(time.DateOnly)]
		if !ok {
			continue
		}
		stat := &stats[i]
		if b.Status == model.StatusCancelled {
			stat.Cancelled++
			continue
		}
		stat.Bookings++
		stat.Hours += b.DurationHours()
		if b.Status.EarnsRevenue() {
			stat.Revenue += b.TotalAmount
		}
	}
	return stats
}

// CourtUsage aggregates non-cancelled bookings per court, busiest first.
func (s *reportService) CourtUsage(from, to time.Time) []CourtUsage {
	byCourt := make(map[int64]*CourtUsage)
	for _, b := range s.bookings.ByDateRange(from, to) {
		if b.Status == model.StatusCancelled {
			continue
		}
		usage, ok := byCourt[b.CourtID]
		if !ok {
			usage = &CourtUsage{CourtID: b.CourtID}
			byCourt[b.CourtID] = usage
		}
		usage.Bookings++
		usage.Hours += b.DurationHours()
		if b.Status.EarnsRevenue() {
			usage.Revenue += b.TotalAmount
		}
	}

	out := make([]CourtUsage, 0, len(byCourt))
	for _, usage := range byCourt {
		out = append(out, *usage)
	}
	slices.SortFunc(out, func(a, b CourtUsage) int {
		if c := cmp.Compare(b.Bookings, a.Bookings); c != 0 {
			return c
		}
		return cmp.Compare(a.CourtID, b.CourtID)
	})
	return out
}
