package brctc

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) chatEntries(c echo.Context) ([]ChatEntry, error) {
	v := a.Viewer(c)
	return a.Store.ListChatMessages(c.Request().Context(), v.User.ID, v.IsAdmin)
}

func (a *App) handleChat(c echo.Context) error {
	entries, err := a.chatEntries(c)
	if err != nil {
		slog.Error("list chat messages", "error", err)
		AddToast(c, "error", "Failed to load messages.")
	}
	p := a.page(c, PageMeta{Title: "Chat", Description: "Talk to our counselors."})
	return Render(c, a.Views.Chat(p, entries))
}

// handleChatMessages renders only the message list. The chat page refetches
// it whenever the change feed reports a new message.
func (a *App) handleChatMessages(c echo.Context) error {
	entries, err := a.chatEntries(c)
	if err != nil {
		slog.Error("list chat messages", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load messages")
	}
	p := a.page(c, PageMeta{})
	return Render(c, a.Views.ChatMessages(p, entries))
}

func (a *App) handleChatSend(c echo.Context) error {
	v := a.Viewer(c)
	_, err := a.Store.CreateChatMessage(c.Request().Context(), v.User.ID, c.FormValue("message"), v.IsAdmin)
	var fe FieldErrors
	if errors.As(err, &fe) {
		AddToast(c, "error", "Type a message first.")
		return c.Redirect(http.StatusSeeOther, "/chat")
	}
	if err != nil {
		return fail(c, "/chat", "Failed to send message.", err)
	}
	if c.Request().Header.Get("X-Requested-With") == "fetch" {
		return c.NoContent(http.StatusCreated)
	}
	return c.Redirect(http.StatusSeeOther, "/chat")
}
