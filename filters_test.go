package brctc

import (
	"net/url"
	"testing"
)

func sampleBookings() []Booking {
	return []Booking{
		{ID: "1", Name: "Alice Wanjiru", Email: "alice@x.io", ServiceType: "individual", Status: BookingPending},
		{ID: "2", Name: "Brian Otieno", Email: "brian@x.io", ServiceType: "family", Status: BookingConfirmed},
		{ID: "3", Name: "Carol", Email: "carol@x.io", ServiceType: "individual", Status: BookingPending},
	}
}

func TestBookingFilter(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3"}},
		{"status=all", []string{"1", "2", "3"}},
		{"status=pending", []string{"1", "3"}},
		{"q=OTIENO", []string{"2"}},
		{"q=individual&status=pending", []string{"1", "3"}},
		{"q=carol@&status=confirmed", nil},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		got := BookingFilterFrom(q).Apply(sampleBookings())
		if len(got) != len(tt.want) {
			t.Errorf("%q: got %d bookings, want %d", tt.query, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i].ID != tt.want[i] {
				t.Errorf("%q: got[%d] = %s, want %s", tt.query, i, got[i].ID, tt.want[i])
			}
		}
	}
}

func TestBookingListCountsUnfiltered(t *testing.T) {
	l := NewBookingList(sampleBookings(), BookingFilter{Status: "confirmed"})
	if len(l.Bookings) != 1 || l.Total != 3 {
		t.Errorf("Bookings = %d, Total = %d", len(l.Bookings), l.Total)
	}
	if l.Counts[BookingPending] != 2 || l.Counts[BookingConfirmed] != 1 {
		t.Errorf("Counts = %v", l.Counts)
	}
}

func TestMessageFilter(t *testing.T) {
	msgs := []ContactMessage{
		{ID: "1", Name: "Dan", Subject: "Fees", Message: "How much?", Status: MessageUnread, Urgency: UrgencyHigh},
		{ID: "2", Name: "Eve", Message: "Training intake dates", Status: MessageRead, Urgency: UrgencyLow},
		{ID: "3", Name: "Fay", Message: "Urgent help", Status: MessageUnread, Urgency: UrgencyHigh},
	}
	f := MessageFilter{Status: "unread", Urgency: "high", Query: "fees"}
	got := f.Apply(msgs)
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("Apply = %+v", got)
	}

	l := NewMessageList(msgs, MessageFilter{Urgency: "all"})
	if len(l.Messages) != 3 || l.High != 2 || l.Counts[MessageUnread] != 2 {
		t.Errorf("list = %+v", l)
	}
}

func TestFilterValues(t *testing.T) {
	v := BookingFilter{Status: "all", Query: "ann"}.Values()
	if v.Get("status") != "" || v.Get("q") != "ann" {
		t.Errorf("Values = %v", v)
	}
	mv := MessageFilter{Status: "read", Urgency: "low"}.Values()
	if mv.Encode() != "status=read&urgency=low" {
		t.Errorf("Values = %q", mv.Encode())
	}
}
