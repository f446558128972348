package dns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrRecordExists marks a create call the zone already satisfied. Callers
// treat it as success.
var ErrRecordExists = errors.New("record already exists")

// ZoneClient is the opaque zone-record capability.
type ZoneClient interface {
	Exists(ctx context.Context, r Record) (bool, error)
	Create(ctx context.Context, r Record) error
}

// HTTPZoneClient talks to the DNS server's REST API. Calls are bounded by
// the HTTP client timeout and retried a few times on transient failure.
type HTTPZoneClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPZoneClient(baseURL, token string) *HTTPZoneClient {
	return &HTTPZoneClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPZoneClient) backoff() retry.Backoff {
	return retry.WithMaxRetries(3, retry.NewConstant(500*time.Millisecond))
}

func (c *HTTPZoneClient) Exists(ctx context.Context, r Record) (bool, error) {
	var exists bool
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		u := fmt.Sprintf("%s/records?name=%s&type=%s",
			c.baseURL, url.QueryEscape(r.Name), url.QueryEscape(r.Type))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		c.auth(req)
		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			exists = false
			return nil
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("zone api: %s", resp.Status))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("zone api: %s", resp.Status)
		}

		var found []Record
		if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
			return err
		}
		exists = len(found) > 0
		return nil
	})
	return exists, err
}

func (c *HTTPZoneClient) Create(ctx context.Context, r Record) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/records", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		c.auth(req)
		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode == http.StatusConflict:
			return ErrRecordExists
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("zone api: %s", resp.Status))
		}

		// some servers report duplicates with a 4xx and a message rather
		// than a 409; the existence pre-check is not atomic with creation,
		// so that message must read as success too
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if strings.Contains(strings.ToLower(string(msg)), "already exists") {
			return ErrRecordExists
		}
		return fmt.Errorf("zone api: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	})
}

func (c *HTTPZoneClient) auth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
