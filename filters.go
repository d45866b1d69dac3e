package brctc

import (
	"net/url"
	"strings"
)

// BookingFilter narrows the admin bookings list.
type BookingFilter struct {
	Status string // "" or "all" matches every status
	Query  string
}

// BookingFilterFrom reads ?status= and ?q= from query.
func BookingFilterFrom(query url.Values) BookingFilter {
	return BookingFilter{
		Status: strings.TrimSpace(query.Get("status")),
		Query:  strings.TrimSpace(query.Get("q")),
	}
}

// Match reports whether b passes the filter. The query matches name,
// email or service type, case-insensitively.
func (f BookingFilter) Match(b Booking) bool {
	if f.Status != "" && f.Status != "all" && string(b.Status) != f.Status {
		return false
	}
	return containsFold(f.Query, b.Name, b.Email, b.ServiceType)
}

// Apply returns the matching bookings in their original order.
func (f BookingFilter) Apply(bookings []Booking) []Booking {
	out := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

// Values encodes the filter for links such as the CSV export.
func (f BookingFilter) Values() url.Values {
	v := url.Values{}
	if f.Status != "" && f.Status != "all" {
		v.Set("status", f.Status)
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	return v
}

// MessageFilter narrows the admin messages list. All criteria are ANDed.
type MessageFilter struct {
	Status  string
	Urgency string
	Query   string
}

// MessageFilterFrom reads ?status=, ?urgency= and ?q= from query.
func MessageFilterFrom(query url.Values) MessageFilter {
	return MessageFilter{
		Status:  strings.TrimSpace(query.Get("status")),
		Urgency: strings.TrimSpace(query.Get("urgency")),
		Query:   strings.TrimSpace(query.Get("q")),
	}
}

// Match reports whether m passes the filter. The query matches name,
// email, message or subject, case-insensitively.
func (f MessageFilter) Match(m ContactMessage) bool {
	if f.Status != "" && f.Status != "all" && string(m.Status) != f.Status {
		return false
	}
	if f.Urgency != "" && f.Urgency != "all" && string(m.Urgency) != f.Urgency {
		return false
	}
	return containsFold(f.Query, m.Name, m.Email, m.Message, m.Subject)
}

// Apply returns the matching messages in their original order.
func (f MessageFilter) Apply(messages []ContactMessage) []ContactMessage {
	out := make([]ContactMessage, 0, len(messages))
	for _, m := range messages {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}

func (f MessageFilter) Values() url.Values {
	v := url.Values{}
	if f.Status != "" && f.Status != "all" {
		v.Set("status", f.Status)
	}
	if f.Urgency != "" && f.Urgency != "all" {
		v.Set("urgency", f.Urgency)
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	return v
}

func containsFold(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// BookingList is the admin bookings screen: the filtered rows plus counts
// over the unfiltered set.
type BookingList struct {
	Filter   BookingFilter
	Bookings []Booking
	Total    int
	Counts   map[BookingStatus]int
}

// NewBookingList filters all and counts statuses.
func NewBookingList(all []Booking, f BookingFilter) BookingList {
	counts := make(map[BookingStatus]int, len(BookingStatuses))
	for _, b := range all {
		counts[b.Status]++
	}
	return BookingList{Filter: f, Bookings: f.Apply(all), Total: len(all), Counts: counts}
}

// MessageList is the admin messages screen.
type MessageList struct {
	Filter   MessageFilter
	Messages []ContactMessage
	Total    int
	Counts   map[MessageStatus]int
	High     int
}

// NewMessageList filters all and counts statuses and high-urgency rows.
func NewMessageList(all []ContactMessage, f MessageFilter) MessageList {
	counts := make(map[MessageStatus]int, len(MessageStatuses))
	high := 0
	for _, m := range all {
		counts[m.Status]++
		if m.Urgency == UrgencyHigh {
			high++
		}
	}
	return MessageList{Filter: f, Messages: f.Apply(all), Total: len(all), Counts: counts, High: high}
}
