package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Counter reports the outstanding intake work.
type Counter interface {
	PendingCounts(ctx context.Context) (pendingBookings, unreadMessages int, err error)
}

// Digest periodically tells staff how many bookings are pending and how
// many messages are unread.
type Digest struct {
	notifier Notifier
	counter  Counter
	cron     *cron.Cron
	timeout  time.Duration
}

// NewDigest creates an unscheduled digest.
func NewDigest(n Notifier, c Counter) *Digest {
	return &Digest{
		notifier: n,
		counter:  c,
		cron:     cron.New(),
		timeout:  30 * time.Second,
	}
}

// Schedule registers the digest under a standard five-field cron spec.
func (d *Digest) Schedule(spec string) error {
	_, err := d.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.Run(ctx); err != nil {
			slog.Error("intake digest failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("notify: schedule digest %q: %w", spec, err)
	}
	return nil
}

// Start runs the scheduler in its own goroutine.
func (d *Digest) Start() {
	d.cron.Start()
	slog.Info("intake digest scheduler started")
}

// Stop halts the scheduler and waits for a running digest to finish.
func (d *Digest) Stop() {
	<-d.cron.Stop().Done()
}

// Run sends one digest now. Nothing is sent when there is no outstanding
// work.
func (d *Digest) Run(ctx context.Context) error {
	pending, unread, err := d.counter.PendingCounts(ctx)
	if err != nil {
		return fmt.Errorf("notify: count outstanding work: %w", err)
	}
	if pending == 0 && unread == 0 {
		return nil
	}
	return d.notifier.Notify(ctx, DigestText(pending, unread))
}

// DigestText formats the digest line.
func DigestText(pendingBookings, unreadMessages int) string {
	return fmt.Sprintf("%s, %s",
		plural(pendingBookings, "pending booking", "pending bookings"),
		plural(unreadMessages, "unread message", "unread messages"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
