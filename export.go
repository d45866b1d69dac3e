package brctc

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

var (
	bookingsCSVHeader = []string{"Name", "Email", "Phone", "Age", "Gender", "Service", "Date", "Time", "Status", "Created"}
	messagesCSVHeader = []string{"Name", "Email", "Phone", "Subject", "Message", "Status", "Urgency", "Date"}
)

const csvDateLayout = "2006-01-02"

// WriteBookingsCSV writes the header row followed by one row per booking.
func WriteBookingsCSV(w io.Writer, bookings []Booking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(bookingsCSVHeader); err != nil {
		return err
	}
	for _, b := range bookings {
		age := ""
		if b.Age != nil {
			age = strconv.Itoa(*b.Age)
		}
		if err := cw.Write([]string{
			b.Name, b.Email, b.Phone, age, b.Gender, b.ServiceType,
			b.PreferredDate, b.PreferredTime, string(b.Status),
			b.CreatedAt.Format(csvDateLayout),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMessagesCSV writes the header row followed by one row per message.
func WriteMessagesCSV(w io.Writer, messages []ContactMessage) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(messagesCSVHeader); err != nil {
		return err
	}
	for _, m := range messages {
		if err := cw.Write([]string{
			m.Name, m.Email, m.Phone, m.Subject, m.Message,
			string(m.Status), string(m.Urgency), m.CreatedAt.Format(csvDateLayout),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename returns "<prefix>-YYYY-MM-DD.csv" for day.
func ExportFilename(prefix string, day time.Time) string {
	return fmt.Sprintf("%s-%s.csv", prefix, day.Format(csvDateLayout))
}

func sendCSV(c echo.Context, filename string, write func(io.Writer) error) error {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)
	return write(c.Response())
}
