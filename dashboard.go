package brctc

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

const recentLimit = 5

// ServiceCount is one bar of the bookings-by-service breakdown.
type ServiceCount struct {
	Service string
	Label   string
	Count   int
}

// Dashboard is the back-office overview.
type Dashboard struct {
	TotalBookings     int
	PendingBookings   int
	ConfirmedBookings int
	CompletedBookings int
	TotalMessages     int
	UnreadMessages    int
	RecentBookings    []Booking
	RecentMessages    []ContactMessage
	ByService         []ServiceCount
}

// DashboardSource lists the rows the dashboard summarizes.
type DashboardSource interface {
	ListBookings(ctx context.Context) ([]Booking, error)
	ListContactMessages(ctx context.Context) ([]ContactMessage, error)
}

// LoadDashboard fetches bookings and messages concurrently and summarizes
// them. Both lists are expected newest first.
func LoadDashboard(ctx context.Context, src DashboardSource) (Dashboard, error) {
	var bookings []Booking
	var messages []ContactMessage

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bookings, err = src.ListBookings(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		messages, err = src.ListContactMessages(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(bookings, messages), nil
}

// BuildDashboard summarizes already loaded rows.
func BuildDashboard(bookings []Booking, messages []ContactMessage) Dashboard {
	d := Dashboard{
		TotalBookings: len(bookings),
		TotalMessages: len(messages),
	}
	byService := map[string]int{}
	for _, b := range bookings {
		switch b.Status {
		case BookingPending:
			d.PendingBookings++
		case BookingConfirmed:
			d.ConfirmedBookings++
		case BookingCompleted:
			d.CompletedBookings++
		}
		byService[b.ServiceType]++
	}
	for _, m := range messages {
		if m.Status == MessageUnread {
			d.UnreadMessages++
		}
	}

	d.RecentBookings = bookings[:min(recentLimit, len(bookings))]
	d.RecentMessages = messages[:min(recentLimit, len(messages))]

	for svc, n := range byService {
		d.ByService = append(d.ByService, ServiceCount{Service: svc, Label: ServiceLabel(svc), Count: n})
	}
	sort.Slice(d.ByService, func(i, j int) bool {
		if d.ByService[i].Count != d.ByService[j].Count {
			return d.ByService[i].Count > d.ByService[j].Count
		}
		return d.ByService[i].Service < d.ByService[j].Service
	})
	return d
}
