package controllers_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Smoke tests against a deployed instance. They only run when
// API_BASE_URL points at a live server.
func liveBaseURL(t *testing.T) string {
	base := os.Getenv("API_BASE_URL")
	if base == "" {
		t.Skip("API_BASE_URL not set, skipping live API tests")
	}
	return base
}

func TestPingLive(t *testing.T) {
	baseURL := liveBaseURL(t)
	client := &http.Client{Timeout: time.Second * 10}

	req, err := http.NewRequest(http.MethodGet, baseURL+"/ping", nil)
	assert.NoError(t, err)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Error reaching server: %v", err)
	}
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "pong", body["message"])
}

func TestLoginRejectsBadCredentialsLive(t *testing.T) {
	baseURL := liveBaseURL(t)
	client := &http.Client{Timeout: time.Second * 10}

	form := url.Values{}
	form.Set("email", "nobody@example.com")
	form.Set("password", "wrong-password")

	resp, err := client.Post(baseURL+"/login",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("Error reaching server: %v", err)
	}
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
