package brctc

import (
	"context"
	"database/sql"
	"strings"

	"github.com/brctc/brctc/realtime"
)

const bookingColumns = `id, name, email, phone, age, gender, occupation, service_type,
	preferred_date, preferred_time, session_type, preferred_counselor_gender,
	emergency_contact_name, emergency_contact_phone, medical_history,
	previous_therapy_experience, referral_source, insurance_provider, payment_method,
	message, consent_to_treatment, consent_to_communication, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (Booking, error) {
	var b Booking
	var age sql.NullInt64
	var prevTherapy, consentTreatment, consentComm int
	var status, created, updated string
	err := row.Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &age, &b.Gender, &b.Occupation,
		&b.ServiceType, &b.PreferredDate, &b.PreferredTime, &b.SessionType,
		&b.PreferredCounselorGender, &b.EmergencyContactName, &b.EmergencyContactPhone,
		&b.MedicalHistory, &prevTherapy, &b.ReferralSource, &b.InsuranceProvider,
		&b.PaymentMethod, &b.Message, &consentTreatment, &consentComm, &status,
		&created, &updated)
	if err != nil {
		return Booking{}, err
	}
	if age.Valid {
		v := int(age.Int64)
		b.Age = &v
	}
	b.PreviousTherapyExperience = prevTherapy == 1
	b.ConsentToTreatment = consentTreatment == 1
	b.ConsentToCommunication = consentComm == 1
	b.Status = BookingStatus(status)
	b.CreatedAt = parseTime(created)
	b.UpdatedAt = parseTime(updated)
	return b, nil
}

// CreateBooking inserts a booking. Name, email and service type are
// required; status defaults to pending and session type to in-person.
func (s *Store) CreateBooking(ctx context.Context, b Booking) (Booking, error) {
	if err := requireFields(map[string]string{
		"name":         b.Name,
		"email":        b.Email,
		"service_type": b.ServiceType,
	}); err != nil {
		return Booking{}, err
	}
	if b.Status == "" {
		b.Status = BookingPending
	}
	if !b.Status.Valid() {
		return Booking{}, ErrInvalidStatus
	}
	if b.SessionType == "" {
		b.SessionType = "in-person"
	}
	b.ID = newID()
	now := s.now()
	b.CreatedAt, b.UpdatedAt = now, now

	var age sql.NullInt64
	if b.Age != nil {
		age = sql.NullInt64{Int64: int64(*b.Age), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, strings.TrimSpace(b.Name), strings.TrimSpace(b.Email), b.Phone, age, b.Gender,
		b.Occupation, b.ServiceType, b.PreferredDate, b.PreferredTime, b.SessionType,
		b.PreferredCounselorGender, b.EmergencyContactName, b.EmergencyContactPhone,
		b.MedicalHistory, boolInt(b.PreviousTherapyExperience), b.ReferralSource,
		b.InsuranceProvider, b.PaymentMethod, b.Message, boolInt(b.ConsentToTreatment),
		boolInt(b.ConsentToCommunication), string(b.Status), formatTime(now), formatTime(now))
	if err != nil {
		return Booking{}, wrapStoreErr("create booking", err)
	}
	s.publish(TableBookings, realtime.OpInsert, b.ID)
	return b, nil
}

// ListBookings returns every booking, newest first.
func (s *Store) ListBookings(ctx context.Context) ([]Booking, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, wrapStoreErr("list bookings", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, wrapStoreErr("scan booking", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetBooking returns a booking by id.
func (s *Store) GetBooking(ctx context.Context, id string) (Booking, error) {
	return scanBooking(s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
}

// UpdateBookingStatus sets the status of a booking. Any status may follow
// any other; values outside the enum are rejected.
func (s *Store) UpdateBookingStatus(ctx context.Context, id string, status BookingStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	err := s.execOne(ctx, `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(s.now()), id)
	if err != nil {
		return err
	}
	s.publish(TableBookings, realtime.OpUpdate, id)
	return nil
}

// PendingCounts returns the number of pending bookings and unread contact
// messages.
func (s *Store) PendingCounts(ctx context.Context) (pendingBookings, unreadMessages int, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM bookings WHERE status = 'pending'),
		(SELECT COUNT(*) FROM contact_messages WHERE status = 'unread')`).
		Scan(&pendingBookings, &unreadMessages)
	return pendingBookings, unreadMessages, err
}
