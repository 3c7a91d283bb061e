package dashboard

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// ListState is the mutually exclusive render state of the document list.
type ListState string

const (
	ListPopulated ListState = "populated"
	ListEmpty     ListState = "empty"
	ListNoResults ListState = "no_results"
)

// Action kinds offered by the list view.
const (
	ActionCreateDocument = "create_document"
	ActionClearSearch    = "clear_search"
	ActionDeleteDocument = "delete_document"
)

const documentIcon = "/assets/icons/doc.svg"

type Action struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Href  string `json:"href,omitempty"`
}

type Row struct {
	ID           string    `json:"id"`
	Href         string    `json:"href"`
	Icon         string    `json:"icon"`
	Title        []Segment `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	CreatedLabel string    `json:"createdLabel"`
	Delete       Action    `json:"delete"`
}

type Banner struct {
	Count int    `json:"count"`
	Label string `json:"label"`
	Text  string `json:"text"`
	Hint  string `json:"hint,omitempty"`
}

type EmptyState struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Actions []Action `json:"actions"`
}

// ListView is everything a client needs to draw the document list.
type ListView struct {
	State  ListState   `json:"state"`
	Query  string      `json:"query"`
	Banner *Banner     `json:"banner,omitempty"`
	Rows   []Row       `json:"rows"`
	Empty  *EmptyState `json:"empty,omitempty"`
}

// SelectState picks the list state from the filtered count and the raw query.
func SelectState(count int, query string) ListState {
	switch {
	case count > 0:
		return ListPopulated
	case query == "":
		return ListEmpty
	default:
		return ListNoResults
	}
}

// ResultLabel phrases a result count: "1 result", otherwise "N results".
func ResultLabel(count int) string {
	if count == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", count)
}

// DocumentHref is the navigation target of a document.
func DocumentHref(id string) string {
	return "/documents/" + id
}

// CreatedLabel renders a creation time relative to now.
func CreatedLabel(createdAt, now time.Time) string {
	return "Created about " + humanize.RelTime(createdAt, now, "ago", "from now")
}

// BuildListView filters docs by query and lays out the resulting state.
func BuildListView(docs []Document, query string, now time.Time) ListView {
	filtered := FilterDocuments(docs, query)
	view := ListView{
		State: SelectState(len(filtered), query),
		Query: query,
		Rows:  make([]Row, 0, len(filtered)),
	}

	if query != "" {
		banner := &Banner{
			Count: len(filtered),
			Label: ResultLabel(len(filtered)),
		}
		banner.Text = banner.Label + ` for "` + query + `"`
		if len(filtered) == 0 {
			banner.Hint = "No documents match your search. Try different keywords or check your spelling."
		}
		view.Banner = banner
	}

	switch view.State {
	case ListPopulated:
		for _, doc := range filtered {
			view.Rows = append(view.Rows, Row{
				ID:           doc.ID,
				Href:         DocumentHref(doc.ID),
				Icon:         documentIcon,
				Title:        titleSegments(doc.Title, query),
				CreatedAt:    doc.CreatedAt,
				CreatedLabel: CreatedLabel(doc.CreatedAt, now),
				Delete: Action{
					Kind:  ActionDeleteDocument,
					Label: "Delete",
					Href:  "/api/documents/" + doc.ID,
				},
			})
		}
	case ListEmpty:
		view.Empty = &EmptyState{
			Title:   "No documents yet",
			Message: "Start a new document to begin collaborating.",
			Actions: []Action{{Kind: ActionCreateDocument, Label: "Start a blank document"}},
		}
	case ListNoResults:
		view.Empty = &EmptyState{
			Title:   "No documents found",
			Message: `We couldn't find any documents matching "` + query + `". Try searching with different keywords.`,
			Actions: []Action{
				{Kind: ActionClearSearch, Label: "Clear search"},
				{Kind: ActionCreateDocument, Label: "Start a blank document"},
			},
		}
	}
	return view
}

// NotFoundView is shown when a document route resolves to nothing the
// visitor may open.
type NotFoundView struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Action  Action `json:"action"`
}

func NewNotFoundView(authenticated bool) NotFoundView {
	view := NotFoundView{
		Title:   "Document Not Found",
		Message: "This document doesn't exist or you don't have access to it.",
	}
	if authenticated {
		view.Action = Action{Kind: "return_to_dashboard", Label: "Return to Dashboard", Href: "/"}
	} else {
		view.Action = Action{Kind: "sign_in", Label: "Sign In to Access Documents", Href: "/sign-in"}
	}
	return view
}
