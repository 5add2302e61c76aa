package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the outbound HTTP API client for the chat gateway. It
// implements domain.ChatTransport.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a gateway API client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type sendResponse struct {
	MessageID int64 `json:"message_id"`
}

// SendMessage delivers text to a chat and returns the message id.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (int64, error) {
	body := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	var resp sendResponse
	if err := c.post(ctx, "/sendMessage", body, &resp); err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return resp.MessageID, nil
}

// SendPhoto delivers a PNG image with an optional caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) (int64, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return 0, fmt.Errorf("send photo: %w", err)
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return 0, fmt.Errorf("send photo: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("photo", "image.png")
	if err != nil {
		return 0, fmt.Errorf("send photo: %w", err)
	}
	if _, err := fw.Write(png); err != nil {
		return 0, fmt.Errorf("send photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return 0, fmt.Errorf("send photo: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendPhoto", &buf)
	if err != nil {
		return 0, fmt.Errorf("send photo: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	var resp sendResponse
	if err := c.do(req, &resp); err != nil {
		return 0, fmt.Errorf("send photo: %w", err)
	}
	return resp.MessageID, nil
}

// DeleteMessage removes a previously sent message.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	body := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}
	if err := c.post(ctx, "/deleteMessage", body, nil); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// FileURL resolves a platform file reference to a retrievable URL.
func (c *Client) FileURL(ctx context.Context, fileRef string) (string, error) {
	u := c.baseURL + "/file?ref=" + url.QueryEscape(fileRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("file url: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("file url: %w", err)
	}
	if resp.URL == "" {
		return "", fmt.Errorf("file url: empty url for ref %s", fileRef)
	}
	return resp.URL, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// truncate returns the first n characters of s, appending "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
