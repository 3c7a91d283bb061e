package inbox

import "time"

// Strategy names how a feed item is drawn.
type Strategy string

const (
	StrategyThread        Strategy = "thread"
	StrategyTextMention   Strategy = "textMention"
	StrategyAccessGranted Strategy = "accessGranted"
	StrategyAccessRemoved Strategy = "accessRemoved"
)

const EmptyPlaceholder = "No new notifications"

// Item is a rendered notification. Href is empty when the notification does
// not lead anywhere.
type Item struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Strategy    Strategy  `json:"strategy"`
	Title       string    `json:"title,omitempty"`
	Body        string    `json:"body,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	Href        string    `json:"href,omitempty"`
	NotifiedAt  time.Time `json:"notifiedAt"`
	ShowActions bool      `json:"showActions"`
}

// Feed is the notification popover content.
type Feed struct {
	ShowBadge   bool   `json:"showBadge"`
	Items       []Item `json:"items"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Href returns the navigation target of a notification.
func Href(n Notification) (string, bool) {
	switch v := n.(type) {
	case ThreadActivity:
		return roomHref(v.RoomID)
	case TextMention:
		return roomHref(v.RoomID)
	case AccessGranted:
		return documentHref(v.RoomID), true
	default:
		return "", false
	}
}

// Render draws a single notification.
func Render(n Notification) Item {
	head := n.header()
	item := Item{ID: head.ID, NotifiedAt: head.NotifiedAt, ShowActions: true}
	if href, ok := Href(n); ok {
		item.Href = href
	}

	switch v := n.(type) {
	case ThreadActivity:
		item.Kind = KindThread
		item.Strategy = StrategyThread
		if v.Actor != nil && v.Actor.Name != "" {
			item.Title = v.Actor.Name + " replied to a thread."
			item.Avatar = v.Actor.Avatar
		} else {
			item.Title = "New activity in a thread."
		}
		item.Body = v.Body
	case TextMention:
		item.Kind = KindTextMention
		item.Strategy = StrategyTextMention
		name := "Someone"
		if v.Actor != nil && v.Actor.Name != "" {
			name = v.Actor.Name
			item.Avatar = v.Actor.Avatar
		}
		item.Title = name + " mentioned you."
	case AccessGranted:
		item.Kind = KindDocumentAccess
		item.Strategy = StrategyAccessGranted
		applyDetail(&item, v.Detail)
	case AccessRemoved:
		item.Kind = KindDocumentAccess
		item.Strategy = StrategyAccessRemoved
		applyDetail(&item, v.Detail)
	}
	return item
}

// BuildFeed renders the unread notifications. Notifications that cannot be
// classified are left out and reported so the caller can log them.
func BuildFeed(notifications []InboxNotification, unreadCount int) (Feed, []error) {
	feed := Feed{ShowBadge: unreadCount > 0, Items: []Item{}}
	var skipped []error
	for _, raw := range Unread(notifications) {
		n, err := Classify(raw)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		feed.Items = append(feed.Items, Render(n))
	}
	if len(feed.Items) == 0 {
		feed.Placeholder = EmptyPlaceholder
	}
	return feed, skipped
}

func applyDetail(item *Item, detail *AccessDetail) {
	if detail == nil {
		return
	}
	item.Title = detail.Title
	item.Avatar = detail.Avatar
}

func roomHref(roomID *string) (string, bool) {
	if roomID == nil {
		return "", false
	}
	return documentHref(*roomID), true
}

func documentHref(roomID string) string {
	return "/documents/" + roomID
}
