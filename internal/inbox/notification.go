// Package inbox classifies inbox notifications and lays out the notification feed.
package inbox

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind is the notification kind tag as delivered by the notification stream.
type Kind string

const (
	KindThread         Kind = "thread"
	KindTextMention    Kind = "textMention"
	KindDocumentAccess Kind = "documentAccess"
)

var ErrUnknownKind = errors.New("unknown notification kind")

// Actor is the user who caused a notification.
type Actor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Activity is one event folded into a notification.
type Activity struct {
	ID        string         `json:"id,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	Data      map[string]any `json:"data"`
}

// InboxNotification is a notification as stored and streamed. Optional fields
// are pointers; nil means absent.
type InboxNotification struct {
	ID         string     `json:"id"`
	UserEmail  string     `json:"-"`
	Kind       Kind       `json:"kind"`
	RoomID     *string    `json:"roomId,omitempty"`
	ThreadID   *string    `json:"threadId,omitempty"`
	Actor      *Actor     `json:"actor,omitempty"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	NotifiedAt time.Time  `json:"notifiedAt"`
	Activities []Activity `json:"activities"`
}

// Unread returns the notifications without a read time, in their original order.
func Unread(notifications []InboxNotification) []InboxNotification {
	unread := make([]InboxNotification, 0, len(notifications))
	for _, notification := range notifications {
		if notification.ReadAt == nil {
			unread = append(unread, notification)
		}
	}
	return unread
}

// Header carries the fields every notification variant has.
type Header struct {
	ID         string
	ReadAt     *time.Time
	NotifiedAt time.Time
}

// Notification is one of ThreadActivity, TextMention, AccessGranted or
// AccessRemoved.
type Notification interface {
	header() Header
}

type ThreadActivity struct {
	Header
	RoomID   *string
	ThreadID *string
	Actor    *Actor
	Body     string
}

type TextMention struct {
	Header
	RoomID *string
	Actor  *Actor
}

// AccessDetail is what the first activity of an access notification says.
type AccessDetail struct {
	Title  string
	Avatar string
}

type AccessGranted struct {
	Header
	RoomID string
	Detail *AccessDetail
}

// AccessRemoved has no room: the document is no longer reachable.
type AccessRemoved struct {
	Header
	Detail *AccessDetail
}

func (n ThreadActivity) header() Header { return n.Header }
func (n TextMention) header() Header    { return n.Header }
func (n AccessGranted) header() Header  { return n.Header }
func (n AccessRemoved) header() Header  { return n.Header }

// Classify turns a stored notification into its variant.
func Classify(raw InboxNotification) (Notification, error) {
	head := Header{ID: raw.ID, ReadAt: raw.ReadAt, NotifiedAt: raw.NotifiedAt}
	switch raw.Kind {
	case KindThread:
		return ThreadActivity{
			Header:   head,
			RoomID:   nonBlank(raw.RoomID),
			ThreadID: nonBlank(raw.ThreadID),
			Actor:    raw.Actor,
			Body:     firstActivityString(raw.Activities, "body"),
		}, nil
	case KindTextMention:
		return TextMention{Header: head, RoomID: nonBlank(raw.RoomID), Actor: raw.Actor}, nil
	case KindDocumentAccess:
		detail := accessDetail(raw.Activities)
		if room := nonBlank(raw.RoomID); room != nil {
			return AccessGranted{Header: head, RoomID: *room, Detail: detail}, nil
		}
		return AccessRemoved{Header: head, Detail: detail}, nil
	default:
		return nil, fmt.Errorf("%w: %q (notification %s)", ErrUnknownKind, raw.Kind, raw.ID)
	}
}

func nonBlank(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return value
}

func accessDetail(activities []Activity) *AccessDetail {
	if len(activities) == 0 || activities[0].Data == nil {
		return nil
	}
	return &AccessDetail{
		Title:  firstActivityString(activities, "title"),
		Avatar: firstActivityString(activities, "avatar"),
	}
}

func firstActivityString(activities []Activity, key string) string {
	if len(activities) == 0 {
		return ""
	}
	value, ok := activities[0].Data[key].(string)
	if !ok {
		return ""
	}
	return value
}
