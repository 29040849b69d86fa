package metagraph

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func stubResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestPublishPagePost_Success(t *testing.T) {
	origClient := httpClient
	t.Cleanup(func() { httpClient = origClient })

	var gotURL, gotBody string
	httpClient = &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			gotURL = req.URL.String()
			b, _ := io.ReadAll(req.Body)
			gotBody = string(b)
			return stubResponse(http.StatusOK, `{"id":"page_post_99"}`), nil
		}),
	}

	c := NewClient("https://graph.test/v19.0")
	id, err := c.PublishPagePost(context.Background(), "page-1", "tok", "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "page_post_99" {
		t.Fatalf("expected page_post_99, got %s", id)
	}
	if gotURL != "https://graph.test/v19.0/page-1/feed" {
		t.Fatalf("unexpected url: %s", gotURL)
	}
	if !bytes.Contains([]byte(gotBody), []byte("access_token=tok")) {
		t.Fatalf("access token missing from form body: %s", gotBody)
	}
	if !bytes.Contains([]byte(gotBody), []byte("message=hello+world")) {
		t.Fatalf("message missing from form body: %s", gotBody)
	}
}

func TestPublishPagePost_GraphErrorEnvelope(t *testing.T) {
	origClient := httpClient
	t.Cleanup(func() { httpClient = origClient })

	httpClient = &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return stubResponse(http.StatusUnauthorized,
				`{"error":{"message":"Error validating access token","type":"OAuthException","code":190,"fbtrace_id":"abc"}}`), nil
		}),
	}

	c := NewClient("https://graph.test/v19.0")
	_, err := c.PublishPagePost(context.Background(), "page-1", "tok", "hello")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Code != 190 || apiErr.Type != "OAuthException" {
		t.Fatalf("unexpected error fields: %+v", apiErr)
	}
}

func TestInstagramFlow_ContainerThenPublish(t *testing.T) {
	origClient := httpClient
	t.Cleanup(func() { httpClient = origClient })

	var urls []string
	httpClient = &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			urls = append(urls, req.URL.Path)
			if len(urls) == 1 {
				return stubResponse(http.StatusOK, `{"id":"container_1"}`), nil
			}
			return stubResponse(http.StatusOK, `{"id":"media_1"}`), nil
		}),
	}

	c := NewClient("https://graph.test/v19.0")
	ctx := context.Background()

	containerID, err := c.CreateMediaContainer(ctx, "ig-1", "tok", "caption", "https://img.test/a.jpg")
	if err != nil {
		t.Fatalf("container create failed: %v", err)
	}
	if containerID != "container_1" {
		t.Fatalf("expected container_1, got %s", containerID)
	}

	postID, err := c.PublishMediaContainer(ctx, "ig-1", "tok", containerID)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if postID != "media_1" {
		t.Fatalf("expected media_1, got %s", postID)
	}

	if urls[0] != "/v19.0/ig-1/media" || urls[1] != "/v19.0/ig-1/media_publish" {
		t.Fatalf("unexpected call sequence: %v", urls)
	}
}

func TestPostForm_MalformedBody(t *testing.T) {
	origClient := httpClient
	t.Cleanup(func() { httpClient = origClient })

	httpClient = &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return stubResponse(http.StatusOK, `not-json`), nil
		}),
	}

	c := NewClient("")
	_, err := c.PublishPagePost(context.Background(), "p", "t", "m")
	if err == nil {
		t.Fatal("expected error on malformed response")
	}
}
