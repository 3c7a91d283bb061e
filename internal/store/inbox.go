package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"docboard/api/internal/inbox"
)

const inboxColumns = `id, user_email, kind, room_id, thread_id, actor, activities, read_at, notified_at`

func scanNotification(row interface{ Scan(...any) error }) (inbox.InboxNotification, error) {
	var item inbox.InboxNotification
	var kind string
	var roomID, threadID sql.NullString
	var actorJSON []byte
	var activitiesJSON []byte
	var readAt sql.NullTime
	if err := row.Scan(&item.ID, &item.UserEmail, &kind, &roomID, &threadID, &actorJSON, &activitiesJSON, &readAt, &item.NotifiedAt); err != nil {
		return inbox.InboxNotification{}, err
	}
	item.Kind = inbox.Kind(kind)
	if roomID.Valid {
		item.RoomID = &roomID.String
	}
	if threadID.Valid {
		item.ThreadID = &threadID.String
	}
	if readAt.Valid {
		item.ReadAt = &readAt.Time
	}
	if len(actorJSON) > 0 {
		var actor inbox.Actor
		if err := json.Unmarshal(actorJSON, &actor); err != nil {
			return inbox.InboxNotification{}, fmt.Errorf("decode actor: %w", err)
		}
		item.Actor = &actor
	}
	item.Activities = []inbox.Activity{}
	if len(activitiesJSON) > 0 {
		if err := json.Unmarshal(activitiesJSON, &item.Activities); err != nil {
			return inbox.InboxNotification{}, fmt.Errorf("decode activities: %w", err)
		}
	}
	return item, nil
}

func (s *PostgresStore) InsertInboxNotification(ctx context.Context, item inbox.InboxNotification) error {
	var actorJSON any
	if item.Actor != nil {
		encoded, err := json.Marshal(item.Actor)
		if err != nil {
			return fmt.Errorf("encode actor: %w", err)
		}
		actorJSON = string(encoded)
	}
	activities := item.Activities
	if activities == nil {
		activities = []inbox.Activity{}
	}
	activitiesJSON, err := json.Marshal(activities)
	if err != nil {
		return fmt.Errorf("encode activities: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO inbox_notifications (id, user_email, kind, room_id, thread_id, actor, activities, notified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, item.ID, normalizeEmail(item.UserEmail), string(item.Kind), item.RoomID, item.ThreadID, actorJSON, string(activitiesJSON), item.NotifiedAt)
	if err != nil {
		return fmt.Errorf("insert inbox notification: %w", err)
	}
	return nil
}

// ListInboxNotifications returns the newest notifications for email.
func (s *PostgresStore) ListInboxNotifications(ctx context.Context, email string, limit int) ([]inbox.InboxNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+inboxColumns+`
		FROM inbox_notifications
		WHERE user_email = $1
		ORDER BY notified_at DESC, id DESC
		LIMIT $2
	`, normalizeEmail(email), limit)
	if err != nil {
		return nil, fmt.Errorf("list inbox notifications: %w", err)
	}
	defer rows.Close()

	items := make([]inbox.InboxNotification, 0)
	for rows.Next() {
		item, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inbox notification: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inbox notifications: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) CountUnreadInboxNotifications(ctx context.Context, email string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM inbox_notifications WHERE user_email=$1 AND read_at IS NULL
	`, normalizeEmail(email)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MarkInboxNotificationRead(ctx context.Context, email, notificationID string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE inbox_notifications SET read_at=COALESCE(read_at, $3)
		WHERE id=$1 AND user_email=$2
	`, notificationID, normalizeEmail(email), at)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireAffected(result)
}

func (s *PostgresStore) MarkAllInboxNotificationsRead(ctx context.Context, email string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE inbox_notifications SET read_at=$2
		WHERE user_email=$1 AND read_at IS NULL
	`, normalizeEmail(email), at)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
