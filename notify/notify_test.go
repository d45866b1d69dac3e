package notify

import (
	"context"
	"errors"
	"testing"

	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCreator struct {
	createFunc func(*twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
	calls      []*twilioApi.CreateMessageParams
}

func (f *fakeCreator) CreateMessage(p *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.calls = append(f.calls, p)
	if f.createFunc != nil {
		return f.createFunc(p)
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

type fakeCounter struct {
	pending, unread int
	err             error
}

func (f fakeCounter) PendingCounts(context.Context) (int, int, error) {
	return f.pending, f.unread, f.err
}

func TestTwilioNotifierSetsParams(t *testing.T) {
	api := &fakeCreator{}
	n := &TwilioNotifier{api: api, from: "+15550001", to: "+15550002"}

	if err := n.Notify(context.Background(), "New booking"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(api.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(api.calls))
	}
	p := api.calls[0]
	if *p.To != "+15550002" || *p.From != "+15550001" || *p.Body != "New booking" {
		t.Errorf("unexpected params to=%q from=%q body=%q", *p.To, *p.From, *p.Body)
	}
}

func TestTwilioNotifierWrapsErrors(t *testing.T) {
	sendErr := errors.New("401 unauthorized")
	api := &fakeCreator{createFunc: func(*twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
		return nil, sendErr
	}}
	n := &TwilioNotifier{api: api, from: "a", to: "b"}
	if err := n.Notify(context.Background(), "x"); !errors.Is(err, sendErr) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestNewTwilioNotifierRequiresConfig(t *testing.T) {
	if _, err := NewTwilioNotifier(TwilioConfig{AccountSID: "AC1"}); err == nil {
		t.Fatal("expected error for incomplete config")
	}
	if _, ok := FromConfig(TwilioConfig{}).(LogNotifier); !ok {
		t.Error("FromConfig should fall back to LogNotifier")
	}
	full := TwilioConfig{AccountSID: "AC1", AuthToken: "t", From: "+1", To: "+2"}
	if _, ok := FromConfig(full).(*TwilioNotifier); !ok {
		t.Error("FromConfig should build a TwilioNotifier for a full config")
	}
}

func TestDigestText(t *testing.T) {
	tests := []struct {
		pending, unread int
		want            string
	}{
		{3, 2, "3 pending bookings, 2 unread messages"},
		{1, 1, "1 pending booking, 1 unread message"},
		{0, 5, "0 pending bookings, 5 unread messages"},
	}
	for _, tt := range tests {
		if got := DigestText(tt.pending, tt.unread); got != tt.want {
			t.Errorf("DigestText(%d, %d) = %q, want %q", tt.pending, tt.unread, got, tt.want)
		}
	}
}

func TestDigestRun(t *testing.T) {
	var sent []string
	n := NotifierFunc(func(_ context.Context, text string) error {
		sent = append(sent, text)
		return nil
	})

	if err := NewDigest(n, fakeCounter{pending: 2, unread: 1}).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sent) != 1 || sent[0] != "2 pending bookings, 1 unread message" {
		t.Fatalf("sent = %v", sent)
	}

	if err := NewDigest(n, fakeCounter{}).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sent) != 1 {
		t.Errorf("digest with nothing outstanding should not send, sent = %v", sent)
	}

	countErr := errors.New("db down")
	if err := NewDigest(n, fakeCounter{err: countErr}).Run(context.Background()); !errors.Is(err, countErr) {
		t.Errorf("expected count error, got %v", err)
	}
}

func TestDigestScheduleRejectsBadSpec(t *testing.T) {
	d := NewDigest(LogNotifier{}, fakeCounter{})
	if err := d.Schedule("not a cron spec"); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if err := d.Schedule("0 8 * * 1-5"); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	d.Start()
	d.Stop()
}

func TestSendSwallowsErrors(t *testing.T) {
	called := false
	Send(context.Background(), NotifierFunc(func(context.Context, string) error {
		called = true
		return errors.New("boom")
	}), "hello")
	if !called {
		t.Error("notifier was not called")
	}
	Send(context.Background(), nil, "ignored")
}
