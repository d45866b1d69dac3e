package brctc

import (
	"context"
	"database/sql"
	"strings"

	"github.com/brctc/brctc/realtime"
)

const messageColumns = `id, name, email, phone, subject, service_type, preferred_contact,
	message, status, urgency_level, follow_up_required, response_sent_at, created_at, updated_at`

func scanMessage(row rowScanner) (ContactMessage, error) {
	var m ContactMessage
	var status, urgency, created, updated string
	var followUp int
	var responded sql.NullString
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.ServiceType,
		&m.PreferredContact, &m.Message, &status, &urgency, &followUp, &responded,
		&created, &updated)
	if err != nil {
		return ContactMessage{}, err
	}
	m.Status = MessageStatus(status)
	m.Urgency = Urgency(urgency)
	m.FollowUpRequired = followUp == 1
	m.ResponseSentAt = timePtr(responded)
	m.CreatedAt = parseTime(created)
	m.UpdatedAt = parseTime(updated)
	return m, nil
}

// CreateContactMessage stores a contact form submission. Name, email and
// message are required. New messages are unread; urgency defaults to medium.
func (s *Store) CreateContactMessage(ctx context.Context, m ContactMessage) (ContactMessage, error) {
	if err := requireFields(map[string]string{
		"name":    m.Name,
		"email":   m.Email,
		"message": m.Message,
	}); err != nil {
		return ContactMessage{}, err
	}
	if m.Status == "" {
		m.Status = MessageUnread
	}
	if !m.Status.Valid() {
		return ContactMessage{}, ErrInvalidStatus
	}
	if !m.Urgency.Valid() {
		m.Urgency = UrgencyMedium
	}
	m.ID = newID()
	now := s.now()
	m.CreatedAt, m.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `INSERT INTO contact_messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, strings.TrimSpace(m.Name), strings.TrimSpace(m.Email), m.Phone, m.Subject,
		m.ServiceType, m.PreferredContact, m.Message, string(m.Status), string(m.Urgency),
		boolInt(m.FollowUpRequired), nullTime(m.ResponseSentAt), formatTime(now), formatTime(now))
	if err != nil {
		return ContactMessage{}, wrapStoreErr("create contact message", err)
	}
	s.publish(TableContactMessages, realtime.OpInsert, m.ID)
	return m, nil
}

// ListContactMessages returns every message, newest first.
func (s *Store) ListContactMessages(ctx context.Context) ([]ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+messageColumns+` FROM contact_messages ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, wrapStoreErr("list contact messages", err)
	}
	defer rows.Close()

	var messages []ContactMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, wrapStoreErr("scan contact message", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// GetContactMessage returns a message by id.
func (s *Store) GetContactMessage(ctx context.Context, id string) (ContactMessage, error) {
	return scanMessage(s.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM contact_messages WHERE id = ?`, id))
}

// UpdateMessageStatus sets the status of a message.
func (s *Store) UpdateMessageStatus(ctx context.Context, id string, status MessageStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	err := s.execOne(ctx, `UPDATE contact_messages SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(s.now()), id)
	if err != nil {
		return err
	}
	s.publish(TableContactMessages, realtime.OpUpdate, id)
	return nil
}

// MarkMessageReplied sets the status to replied and stamps response_sent_at.
func (s *Store) MarkMessageReplied(ctx context.Context, id string) error {
	now := formatTime(s.now())
	err := s.execOne(ctx, `UPDATE contact_messages SET status = ?, response_sent_at = ?, updated_at = ? WHERE id = ?`,
		string(MessageReplied), now, now, id)
	if err != nil {
		return err
	}
	s.publish(TableContactMessages, realtime.OpUpdate, id)
	return nil
}

// DeleteContactMessage removes a message.
func (s *Store) DeleteContactMessage(ctx context.Context, id string) error {
	if err := s.execOne(ctx, `DELETE FROM contact_messages WHERE id = ?`, id); err != nil {
		return err
	}
	s.publish(TableContactMessages, realtime.OpDelete, id)
	return nil
}
