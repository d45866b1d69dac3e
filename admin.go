package brctc

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) handleAdminDashboard(c echo.Context) error {
	d, err := LoadDashboard(c.Request().Context(), a.Store)
	if err != nil {
		slog.Error("load dashboard", "error", err)
		AddToast(c, "error", "Failed to load dashboard.")
	}
	return Render(c, a.Views.AdminDashboard(a.page(c, PageMeta{Title: "Dashboard"}), d))
}

func (a *App) bookingList(c echo.Context) (BookingList, error) {
	all, err := a.Store.ListBookings(c.Request().Context())
	if err != nil {
		return BookingList{}, err
	}
	return NewBookingList(all, BookingFilterFrom(c.QueryParams())), nil
}

func (a *App) handleAdminBookings(c echo.Context) error {
	l, err := a.bookingList(c)
	if err != nil {
		slog.Error("list bookings", "error", err)
		AddToast(c, "error", "Failed to fetch bookings.")
		l = NewBookingList(nil, BookingFilterFrom(c.QueryParams()))
	}
	return Render(c, a.Views.AdminBookings(a.page(c, PageMeta{Title: "Bookings"}), l))
}

// handleAdminBookingRows renders the table body the bookings page swaps in
// when the change feed reports a write.
func (a *App) handleAdminBookingRows(c echo.Context) error {
	l, err := a.bookingList(c)
	if err != nil {
		slog.Error("list bookings", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch bookings")
	}
	return Render(c, a.Views.AdminBookingRows(a.page(c, PageMeta{}), l))
}

func (a *App) handleAdminBookingsExport(c echo.Context) error {
	l, err := a.bookingList(c)
	if err != nil {
		return err
	}
	return sendCSV(c, ExportFilename("bookings", a.Store.now()), func(w io.Writer) error {
		return WriteBookingsCSV(w, l.Bookings)
	})
}

func (a *App) handleAdminBookingStatus(c echo.Context) error {
	back := returnTo(c, "/admin/bookings")
	status := BookingStatus(c.FormValue("status"))
	err := a.Store.UpdateBookingStatus(c.Request().Context(), c.Param("id"), status)
	if err != nil {
		return fail(c, back, "Failed to update booking status.", err)
	}
	AddToast(c, "success", "Booking status has been updated.")
	return c.Redirect(http.StatusSeeOther, back)
}

func (a *App) messageList(c echo.Context) (MessageList, error) {
	all, err := a.Store.ListContactMessages(c.Request().Context())
	if err != nil {
		return MessageList{}, err
	}
	return NewMessageList(all, MessageFilterFrom(c.QueryParams())), nil
}

func (a *App) handleAdminMessages(c echo.Context) error {
	l, err := a.messageList(c)
	if err != nil {
		slog.Error("list contact messages", "error", err)
		AddToast(c, "error", "Failed to fetch contact messages.")
		l = NewMessageList(nil, MessageFilterFrom(c.QueryParams()))
	}
	return Render(c, a.Views.AdminMessages(a.page(c, PageMeta{Title: "Messages"}), l))
}

func (a *App) handleAdminMessageRows(c echo.Context) error {
	l, err := a.messageList(c)
	if err != nil {
		slog.Error("list contact messages", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch contact messages")
	}
	return Render(c, a.Views.AdminMessageRows(a.page(c, PageMeta{}), l))
}

func (a *App) handleAdminMessagesExport(c echo.Context) error {
	l, err := a.messageList(c)
	if err != nil {
		return err
	}
	return sendCSV(c, ExportFilename("contact-messages", a.Store.now()), func(w io.Writer) error {
		return WriteMessagesCSV(w, l.Messages)
	})
}

func (a *App) handleAdminMessageStatus(c echo.Context) error {
	back := returnTo(c, "/admin/messages")
	status := MessageStatus(c.FormValue("status"))
	if err := a.Store.UpdateMessageStatus(c.Request().Context(), c.Param("id"), status); err != nil {
		return fail(c, back, "Failed to update message status.", err)
	}
	AddToast(c, "success", "Message status has been updated.")
	return c.Redirect(http.StatusSeeOther, back)
}

func (a *App) handleAdminMessageReplied(c echo.Context) error {
	back := returnTo(c, "/admin/messages")
	if err := a.Store.MarkMessageReplied(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, back, "Failed to mark message as replied.", err)
	}
	AddToast(c, "success", "Message has been marked as replied.")
	return c.Redirect(http.StatusSeeOther, back)
}

func (a *App) handleAdminMessageDelete(c echo.Context) error {
	back := returnTo(c, "/admin/messages")
	err := a.Store.DeleteContactMessage(c.Request().Context(), c.Param("id"))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fail(c, back, "Failed to delete message.", err)
	}
	AddToast(c, "success", "Contact message has been deleted.")
	return c.Redirect(http.StatusSeeOther, back)
}

func (a *App) handleAdminSettings(c echo.Context) error {
	saved, err := a.Store.ListSettings(c.Request().Context())
	if err != nil {
		slog.Error("list settings", "error", err)
		AddToast(c, "error", "Failed to load settings.")
	}
	ed := NewSettingsEditor(saved)
	return Render(c, a.Views.AdminSettings(a.page(c, PageMeta{Title: "Settings"}), ed))
}

// handleAdminSettingsSave writes the keys whose submitted value differs
// from what is stored. "action=reset" discards the form instead.
func (a *App) handleAdminSettingsSave(c echo.Context) error {
	ctx := c.Request().Context()
	saved, err := a.Store.ListSettings(ctx)
	if err != nil {
		return fail(c, "/admin/settings", "Failed to load settings.", err)
	}
	if c.FormValue("action") == "reset" {
		AddToast(c, "success", "All changes have been reverted to saved values.")
		return c.Redirect(http.StatusSeeOther, "/admin/settings")
	}
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	ed := NewSettingsEditor(saved)
	ed.ApplyForm(form)
	if err := ed.Save(ctx, a.Store); err != nil {
		slog.Error("save settings", "error", err)
		AddToast(c, "error", "Failed to save settings.")
		return RenderStatus(c, http.StatusOK, a.Views.AdminSettings(a.page(c, PageMeta{Title: "Settings"}), ed))
	}
	AddToast(c, "success", "All changes have been saved.")
	return c.Redirect(http.StatusSeeOther, "/admin/settings")
}

// returnTo reads the "return" form field, accepting only back-office paths.
func returnTo(c echo.Context, fallback string) string {
	back := c.FormValue("return")
	if strings.HasPrefix(back, "/admin/") && !strings.HasPrefix(back, "//") && !strings.Contains(back, "\\") {
		return back
	}
	return fallback
}
