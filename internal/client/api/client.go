// Package api is the HTTP client for the content vault server. It holds the
// access token after login and translates HTTP statuses into the shared
// sentinel errors; upload rejections come back as *RejectionError carrying
// the terminal record.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/vikinglab/contentvault/internal/common"
)

// UploadRecord mirrors the server's wire shape of one upload attempt.
type UploadRecord struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Username     string    `json:"username"`
	Status       string    `json:"status"`
	SizeBytes    int64     `json:"sizeBytes"`
	ErrorMessage *string   `json:"errorMessage"`
	UploadTime   time.Time `json:"uploadTime"`
}

// RejectionError is returned when the server rejected an upload; Record is
// the FAILED record the server persisted for the attempt.
type RejectionError struct {
	Reason string
	Record *UploadRecord
}

func (e *RejectionError) Error() string {
	return e.Reason
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// IsLoggedIn reports whether a login or registration has succeeded.
func (c *Client) IsLoggedIn() bool {
	return c.token != ""
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorUnavailable, err.Error())
	}
	return resp, nil
}

func decodeEnvelope(resp *http.Response) (*envelope, error) {
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &env, nil
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) error {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		resp.Body.Close()
		return common.ErrorUnauthorized
	case http.StatusConflict:
		resp.Body.Close()
		return common.ErrorAlreadyExists
	default:
		resp.Body.Close()
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return err
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("decoding token: %w", err)
	}

	c.token = data.Token
	return nil
}

// Register creates an account and logs in with it.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, "/api/auth/register", username, password)
}

// Login authenticates and stores the access token for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, "/api/auth/login", username, password)
}

// ServerStatus is the availability probe payload: how long the server has
// been up and when it started.
type ServerStatus struct {
	UptimeSeconds int64     `json:"uptimeSeconds"`
	StartTime     time.Time `json:"startTime"`
}

// Uptime asks the server how long it has been running; also serves as a
// reachability probe.
func (c *Client) Uptime(ctx context.Context) (*ServerStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/uptime", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var status ServerStatus
	if err := json.Unmarshal(env.Data, &status); err != nil {
		return nil, fmt.Errorf("decoding uptime: %w", err)
	}
	return &status, nil
}

// Upload submits a file. The callback URL may be empty when no push
// notification is wanted. A 422 response becomes a *RejectionError whose
// Record is the persisted FAILED attempt.
func (c *Client) Upload(ctx context.Context, filename string, data []byte, callbackURL string) (*UploadRecord, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if callbackURL != "" {
		if err := mw.WriteField("callback_url", callbackURL); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/files/", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnprocessableEntity:
	case http.StatusUnauthorized:
		resp.Body.Close()
		return nil, common.ErrorUnauthorized
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	rejected := resp.StatusCode == http.StatusUnprocessableEntity

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var record UploadRecord
	if err := json.Unmarshal(env.Data, &record); err != nil {
		return nil, fmt.Errorf("decoding upload record: %w", err)
	}

	if rejected {
		reason := ""
		if env.Error != nil {
			reason = env.Error.Message
		}
		return &record, &RejectionError{Reason: reason, Record: &record}
	}
	return &record, nil
}

// Latest returns the caller's most recent upload attempt, or (nil, nil) when
// the caller has never uploaded.
func (c *Client) Latest(ctx context.Context) (*UploadRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/files/latest", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		resp.Body.Close()
		return nil, common.ErrorUnauthorized
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	if string(env.Data) == "null" || len(env.Data) == 0 {
		return nil, nil
	}

	var record UploadRecord
	if err := json.Unmarshal(env.Data, &record); err != nil {
		return nil, fmt.Errorf("decoding upload record: %w", err)
	}
	return &record, nil
}

// ExportCSV fetches the server-wide upload history as CSV bytes.
func (c *Client) ExportCSV(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/files/export", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, common.ErrorUnauthorized
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Download fetches the stored content of one file.
func (c *Client) Download(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/files/"+name+"/content", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, common.ErrorNotFound
	case http.StatusUnauthorized:
		return nil, common.ErrorUnauthorized
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
