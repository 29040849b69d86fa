// Package metagraph is a thin client for the Meta Graph API, covering the
// two publish calls the engine needs: Facebook Page feed posts and
// Instagram media (container + publish).
package metagraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const httpTimeout = 20 * time.Second

var (
	// Swapped in tests.
	httpClient = &http.Client{Timeout: httpTimeout}
)

// Client talks to one Graph API base URL.
type Client struct {
	baseURL string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v19.0"
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/")}
}

// graphError mirrors the Graph API error envelope.
type graphError struct {
	Error struct {
		Message        string `json:"message"`
		Type           string `json:"type"`
		Code           int    `json:"code"`
		ErrorSubcode   int    `json:"error_subcode"`
		FBTraceID      string `json:"fbtrace_id"`
		IsTransient    bool   `json:"is_transient"`
		ErrorUserTitle string `json:"error_user_title"`
	} `json:"error"`
}

// APIError is a failed Graph call with enough detail for the caller to
// classify it (auth, rate limit, content policy, transport).
type APIError struct {
	StatusCode int
	Code       int
	Subcode    int
	Type       string
	Message    string
	Transient  bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api error %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// PublishPagePost creates a feed post on a Facebook Page.
// Returns the platform post id.
func (c *Client) PublishPagePost(ctx context.Context, pageID, accessToken, message string) (string, error) {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", accessToken)

	return c.postForm(ctx, fmt.Sprintf("%s/%s/feed", c.baseURL, pageID), form)
}

// CreateMediaContainer creates an Instagram media container for a caption
// (and optionally an image). Publishing is a second call.
func (c *Client) CreateMediaContainer(ctx context.Context, igUserID, accessToken, caption, imageURL string) (string, error) {
	form := url.Values{}
	form.Set("caption", caption)
	if imageURL != "" {
		form.Set("image_url", imageURL)
	}
	form.Set("access_token", accessToken)

	return c.postForm(ctx, fmt.Sprintf("%s/%s/media", c.baseURL, igUserID), form)
}

// PublishMediaContainer publishes a previously created container.
func (c *Client) PublishMediaContainer(ctx context.Context, igUserID, accessToken, containerID string) (string, error) {
	form := url.Values{}
	form.Set("creation_id", containerID)
	form.Set("access_token", accessToken)

	return c.postForm(ctx, fmt.Sprintf("%s/%s/media_publish", c.baseURL, igUserID), form)
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 400 {
		var ge graphError
		if jsonErr := json.Unmarshal(body, &ge); jsonErr == nil && ge.Error.Message != "" {
			logrus.WithFields(logrus.Fields{
				"status":   resp.StatusCode,
				"code":     ge.Error.Code,
				"trace_id": ge.Error.FBTraceID,
			}).Warn("[META_GRAPH] API call rejected")
			return "", &APIError{
				StatusCode: resp.StatusCode,
				Code:       ge.Error.Code,
				Subcode:    ge.Error.ErrorSubcode,
				Type:       ge.Error.Type,
				Message:    ge.Error.Message,
				Transient:  ge.Error.IsTransient,
			}
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unexpected graph response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("graph response missing id")
	}
	return out.ID, nil
}
