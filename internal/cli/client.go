package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ojudge/identity/internal/common"
)

// ErrUnavailable is returned when the server cannot be reached at all, as
// opposed to answering with an error status.
var ErrUnavailable = errors.New("server unavailable")

// Identity is the client-side view of an identity as the API returns it.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	Privilege int       `json:"privilege"`
	CreatedAt time.Time `json:"created_at"`
}

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client is a thin JSON client for the identity HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *Client) do(ctx context.Context, method, path, token string, body any, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(buf)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("bad response from server: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server said %d: %s", resp.StatusCode, envelope.Message)
	}
	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("bad response payload: %w", err)
		}
	}
	return nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

// Refresh trades a still-valid token for a fresh one.
func (c *Client) Refresh(ctx context.Context, token string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/refresh", token, nil, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Get fetches a single identity by id.
func (c *Client) Get(ctx context.Context, token, id string) (*Identity, error) {
	var out Identity
	if err := c.do(ctx, http.MethodGet, "/identities/"+url.PathEscape(id), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List fetches one page of identities; a non-empty keyword searches instead.
func (c *Client) List(ctx context.Context, token, keyword string, page int) ([]Identity, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	if keyword != "" {
		params.Set("q", keyword)
	}
	var out []Identity
	if err := c.do(ctx, http.MethodGet, "/identities?"+params.Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetPrivilege patches a single identity's privilege.
func (c *Client) SetPrivilege(ctx context.Context, token, id string, priv int) (*Identity, error) {
	var out Identity
	err := c.do(ctx, http.MethodPatch, "/identities/"+url.PathEscape(id), token, map[string]int{
		"privilege": priv,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
