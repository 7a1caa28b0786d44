package chatclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strconv"
	"strings"

	"openchat/internal/transcript"
)

func (c *Client) FetchMessages(ctx context.Context, limit int) ([]transcript.Message, error) {
	var resp struct {
		Messages []transcript.Message `json:"messages"`
	}
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if err := c.do(ctx, http.MethodGet, "/messages", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) InsertMessage(ctx context.Context, msg transcript.NewMessage) (*transcript.Message, error) {
	var out transcript.Message
	if err := c.do(ctx, http.MethodPost, "/messages", nil, msg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMessage(ctx context.Context, id string, as transcript.Identity) error {
	body := struct {
		UserID   string `json:"user_id,omitempty"`
		Nickname string `json:"nickname,omitempty"`
	}{as.ID, as.Nickname}
	return c.do(ctx, http.MethodDelete, "/messages/"+url.PathEscape(id), nil, body, nil)
}

func (c *Client) FetchReactions(ctx context.Context, messageID string) ([]transcript.Reaction, error) {
	var resp struct {
		Reactions []transcript.Reaction `json:"reactions"`
	}
	if err := c.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(messageID)+"/reactions", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reactions, nil
}

func (c *Client) InsertReaction(ctx context.Context, r transcript.NewReaction) (*transcript.Reaction, error) {
	body := struct {
		UserID   string                  `json:"user_id"`
		Nickname string                  `json:"nickname,omitempty"`
		Kind     transcript.ReactionKind `json:"reaction_type"`
	}{UserID: r.UserID, Kind: r.Kind}
	if c.identity.ID == r.UserID {
		body.Nickname = c.identity.Nickname
	}

	var out transcript.Reaction
	if err := c.do(ctx, http.MethodPost, "/messages/"+url.PathEscape(r.MessageID)+"/reactions", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteReaction(ctx context.Context, messageID, userID string) error {
	q := url.Values{}
	q.Set("user_id", userID)
	return c.do(ctx, http.MethodDelete, "/messages/"+url.PathEscape(messageID)+"/reactions", q, nil, nil)
}

// Upload stores data at objectPath. The path's top directory (images/ or
// audio/) selects the upload kind.
func (c *Client) Upload(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	kind := "audio"
	if strings.HasPrefix(objectPath, "images/") {
		kind = "image"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("kind", kind)
	_ = w.WriteField("path", objectPath)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, path.Base(objectPath)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/uploads", nil), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
