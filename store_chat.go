package brctc

import (
	"context"
	"database/sql"
	"strings"

	"github.com/brctc/brctc/realtime"
)

// DisplayName is the sender's full name, falling back to their email and
// then to "Unknown".
func (e ChatEntry) DisplayName() string {
	switch {
	case e.SenderName != "":
		return e.SenderName
	case e.SenderEmail != "":
		return e.SenderEmail
	default:
		return "Unknown"
	}
}

// CreateChatMessage stores a message from senderID. Messages are broadcast:
// recipient_id is always left empty.
func (s *Store) CreateChatMessage(ctx context.Context, senderID, text string, fromAdmin bool) (ChatMessage, error) {
	text = strings.TrimSpace(text)
	if err := requireFields(map[string]string{"sender_id": senderID, "message": text}); err != nil {
		return ChatMessage{}, err
	}
	now := s.now()
	m := ChatMessage{
		ID:          newID(),
		SenderID:    senderID,
		Message:     text,
		IsFromAdmin: fromAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO chat_messages
		(id, sender_id, recipient_id, message, is_from_admin, read_at, created_at, updated_at)
		VALUES (?, ?, NULL, ?, ?, NULL, ?, ?)`,
		m.ID, m.SenderID, m.Message, boolInt(m.IsFromAdmin), formatTime(now), formatTime(now))
	if err != nil {
		return ChatMessage{}, wrapStoreErr("create chat message", err)
	}
	s.publish(TableChatMessages, realtime.OpInsert, m.ID)
	return m, nil
}

// ListChatMessages returns the chat history, oldest first, joined with
// sender profiles. Admins see every message; anyone else sees only
// messages they sent or that were addressed to them.
func (s *Store) ListChatMessages(ctx context.Context, viewerID string, all bool) ([]ChatEntry, error) {
	query := `SELECT m.id, m.sender_id, m.recipient_id, m.message, m.is_from_admin, m.read_at,
		m.created_at, m.updated_at, COALESCE(p.full_name, ''), COALESCE(NULLIF(p.email, ''), u.email, '')
		FROM chat_messages m
		LEFT JOIN profiles p ON p.user_id = m.sender_id
		LEFT JOIN users u ON u.id = m.sender_id`
	var args []any
	if !all {
		query += ` WHERE m.sender_id = ? OR m.recipient_id = ?`
		args = append(args, viewerID, viewerID)
	}
	query += ` ORDER BY m.created_at ASC, m.rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreErr("list chat messages", err)
	}
	defer rows.Close()

	var entries []ChatEntry
	for rows.Next() {
		var e ChatEntry
		var recipient, readAt sql.NullString
		var fromAdmin int
		var created, updated string
		if err := rows.Scan(&e.ID, &e.SenderID, &recipient, &e.Message, &fromAdmin, &readAt,
			&created, &updated, &e.SenderName, &e.SenderEmail); err != nil {
			return nil, err
		}
		e.RecipientID = recipient.String
		e.IsFromAdmin = fromAdmin == 1
		e.ReadAt = timePtr(readAt)
		e.CreatedAt = parseTime(created)
		e.UpdatedAt = parseTime(updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
