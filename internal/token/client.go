package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Client забирает join token с эндпоинта выдачи. Для ядра сессии это
// непрозрачный асинхронный вызов: строка токена либо ошибка.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpc: httpc}
}

type tokenResponse struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

func (c *Client) JoinToken(ctx context.Context, roomID, identity, displayName string) (string, error) {
	q := url.Values{}
	q.Set("room", roomID)
	q.Set("username", displayName)
	q.Set("identity", identity)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/token?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("token fetch: %w", err)
	}
	defer resp.Body.Close()

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if body.Error != "" {
			return "", fmt.Errorf("token endpoint: %s", body.Error)
		}
		return "", fmt.Errorf("token endpoint: status %d", resp.StatusCode)
	}
	if body.Token == "" {
		return "", fmt.Errorf("token endpoint: empty token")
	}
	return body.Token, nil
}
