package brctc

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brctc/brctc/notify"
)

func (a *App) handleContact(c echo.Context) error {
	form := ContactForm{
		ServiceType: c.QueryParam("service"),
		Urgency:     string(UrgencyMedium),
	}
	return a.renderContact(c, http.StatusOK, form, nil)
}

func (a *App) renderContact(c echo.Context, code int, form ContactForm, errs FieldErrors) error {
	p := a.page(c, PageMeta{Title: "Contact Us", Description: "Get in touch with our counseling team."})
	return RenderStatus(c, code, a.Views.Contact(p, form, errs))
}

func (a *App) handleContactSubmit(c echo.Context) error {
	var form ContactForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if errs := form.Validate(); !errs.Empty() {
		return a.renderContact(c, http.StatusUnprocessableEntity, form, errs)
	}
	if !a.submitLimiter.Allow(c.RealIP()) {
		AddToast(c, "error", "Too many submissions. Please try again later.")
		return a.renderContact(c, http.StatusTooManyRequests, form, nil)
	}

	ctx := c.Request().Context()
	msg, err := a.Store.CreateContactMessage(ctx, form.ContactMessage())
	if err != nil {
		slog.Error("create contact message", "error", err)
		AddToast(c, "error", "Failed to send message. Please try again.")
		return a.renderContact(c, http.StatusOK, form, nil)
	}
	if msg.Urgency == UrgencyHigh {
		notify.Send(ctx, a.Notifier, fmt.Sprintf("Urgent contact message from %s <%s>", msg.Name, msg.Email))
	}

	AddToast(c, "success", "Message sent. We'll get back to you within 24 hours.")
	return c.Redirect(http.StatusSeeOther, "/contact")
}

func (a *App) handleBooking(c echo.Context) error {
	w := NewBookingWizard()
	if service := c.QueryParam("service"); service != "" {
		w.Service.ServiceType = service
	}
	return a.renderBooking(c, http.StatusOK, w, nil)
}

func (a *App) renderBooking(c echo.Context, code int, w BookingWizard, errs FieldErrors) error {
	p := a.page(c, PageMeta{Title: "Book a Session", Description: "Book a counseling session with our team."})
	return RenderStatus(c, code, a.Views.Booking(p, w, errs))
}

// handleBookingStep moves the wizard. The form carries every step's fields
// plus the current step, and "action" is one of next, prev or submit.
func (a *App) handleBookingStep(c echo.Context) error {
	var w BookingWizard
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	w.Normalize()

	switch c.FormValue("action") {
	case "prev":
		w.Previous()
		return a.renderBooking(c, http.StatusOK, w, nil)
	case "submit":
		return a.submitBooking(c, w)
	default:
		if errs := w.Next(); !errs.Empty() {
			return a.renderBooking(c, http.StatusUnprocessableEntity, w, errs)
		}
		return a.renderBooking(c, http.StatusOK, w, nil)
	}
}

func (a *App) submitBooking(c echo.Context, w BookingWizard) error {
	if !a.submitLimiter.Allow(c.RealIP()) {
		AddToast(c, "error", "Too many submissions. Please try again later.")
		return a.renderBooking(c, http.StatusTooManyRequests, w, nil)
	}

	ctx := c.Request().Context()
	b, err := SubmitBooking(ctx, a.Store, &w)
	var fe FieldErrors
	switch {
	case errors.Is(err, ErrConsentRequired):
		AddToast(c, "error", "Please provide consent to treatment to proceed.")
		return a.renderBooking(c, http.StatusUnprocessableEntity, w, nil)
	case errors.As(err, &fe):
		return a.renderBooking(c, http.StatusUnprocessableEntity, w, fe)
	case err != nil:
		slog.Error("create booking", "error", err)
		AddToast(c, "error", "Failed to submit application. Please try again.")
		return a.renderBooking(c, http.StatusOK, w, nil)
	}

	notify.Send(ctx, a.Notifier, fmt.Sprintf("New booking: %s for %s", b.Name, ServiceLabel(b.ServiceType)))
	AddToast(c, "success", "Application submitted. We'll contact you within 24 hours to confirm your appointment.")
	return c.Redirect(http.StatusSeeOther, "/book")
}
