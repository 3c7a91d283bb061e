// Package realtime exchanges a signed-in user's identity for a collaboration
// token with the realtime provider.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("realtime provider is not configured")

const maxResponseBytes = 1 << 20

// palette holds the presence colors handed out to collaborators.
var palette = []string{
	"#2E8B57", "#FF6EB4", "#00CDCD", "#FF00FF", "#FF007F",
	"#FFD700", "#00CED1", "#FF1493", "#FF7F50", "#9ACD32",
	"#FFA500", "#32CD32", "#ADFF2F", "#DB7093", "#00FF7F",
	"#1E90FF", "#FF69B4", "#8A2BE2", "#FF4500", "#FF6347",
}

// UserColor picks a presence color from the user id. The same id always gets
// the same color.
func UserColor(userID string) string {
	sum := 0
	for _, r := range userID {
		sum += int(r)
	}
	return palette[sum%len(palette)]
}

type UserInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Color  string `json:"color"`
}

// Identity is the body of an identify-user request. UserID is the email so
// room access lists keyed by email match.
type Identity struct {
	UserID   string   `json:"userId"`
	GroupIDs []string `json:"groupIds"`
	UserInfo UserInfo `json:"userInfo"`
}

// NewIdentity builds the identity of a signed-in user.
func NewIdentity(userID, name, email, avatar string) Identity {
	return Identity{
		UserID:   email,
		GroupIDs: []string{},
		UserInfo: UserInfo{
			ID:     userID,
			Name:   name,
			Email:  email,
			Avatar: avatar,
			Color:  UserColor(userID),
		},
	}
}

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.secretKey != ""
}

// IdentifyUser posts identity to the provider and returns its status code and
// body untouched.
func (c *Client) IdentifyUser(ctx context.Context, identity Identity) (int, []byte, error) {
	if !c.Configured() {
		return 0, nil, ErrNotConfigured
	}
	payload, err := json.Marshal(identity)
	if err != nil {
		return 0, nil, fmt.Errorf("encode identity: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/identify-user", bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("build identify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("identify user: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read identify response: %w", err)
	}
	return resp.StatusCode, body, nil
}
