package chatclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"openchat/internal/transcript"
)

// Auth is returned by register, login and claim.
type Auth struct {
	User struct {
		ID       string `json:"id"`
		Nickname string `json:"nickname"`
	} `json:"user"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
	ShareableCode string    `json:"shareable_code"`
}

func (a *Auth) Identity() transcript.Identity {
	return transcript.Identity{ID: a.User.ID, Nickname: a.User.Nickname}
}

type Member struct {
	ID         string    `json:"id"`
	Nickname   string    `json:"nickname"`
	LastActive time.Time `json:"last_active"`
	Online     bool      `json:"online"`
}

func (c *Client) Register(ctx context.Context, nickname string) (*Auth, error) {
	var out Auth
	body := map[string]string{"nickname": nickname}
	if err := c.do(ctx, http.MethodPost, "/users", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login signs in by user id when given, otherwise by nickname.
func (c *Client) Login(ctx context.Context, userID, nickname string) (*Auth, error) {
	var out Auth
	body := map[string]string{"user_id": userID, "nickname": nickname}
	if err := c.do(ctx, http.MethodPost, "/users/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Available(ctx context.Context, nickname string) (bool, error) {
	var out struct {
		Available bool `json:"available"`
	}
	q := url.Values{}
	q.Set("nickname", nickname)
	if err := c.do(ctx, http.MethodGet, "/users/availability", q, nil, &out); err != nil {
		return false, err
	}
	return out.Available, nil
}

func (c *Client) Members(ctx context.Context) ([]Member, int, error) {
	var out struct {
		Members []Member `json:"members"`
		Online  int      `json:"online"`
	}
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Members, out.Online, nil
}

func (c *Client) Touch(ctx context.Context, id transcript.Identity) error {
	return c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(id.ID)+"/active", nil, nil, nil)
}
