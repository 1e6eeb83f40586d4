package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelmatch/internal/api"
)

// ErrAPIUnavailable marks tail requests that could not reach the daemon HTTP
// API.
var ErrAPIUnavailable = errors.New("log API unavailable")

// TailClient fetches daemon log lines over the HTTP API, mirroring Tail's
// offset semantics for hosts that only expose the network listener.
type TailClient struct {
	base  *url.URL
	token string
	http  *http.Client
}

// TailQuery mirrors TailOptions for remote requests.
type TailQuery struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// NewTailClient builds a client against the daemon API bind address. An empty
// bind returns a nil client so callers can treat the remote path as absent.
func NewTailClient(bind, token string) (*TailClient, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &TailClient{
		base:  base,
		token: strings.TrimSpace(token),
		// No timeout: follow mode blocks server-side until lines arrive or
		// the caller cancels.
		http: &http.Client{},
	}, nil
}

// Fetch retrieves the next chunk of log lines.
func (c *TailClient) Fetch(ctx context.Context, q TailQuery) (api.LogTailResponse, error) {
	if c == nil {
		return api.LogTailResponse{}, ErrAPIUnavailable
	}

	values := url.Values{}
	values.Set("offset", strconv.FormatInt(q.Offset, 10))
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}
	if q.Wait > 0 {
		values.Set("wait_ms", strconv.FormatInt(q.Wait.Milliseconds(), 10))
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: "/api/logs", RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return api.LogTailResponse{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return api.LogTailResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return api.LogTailResponse{}, fmt.Errorf("api logs returned status %d", resp.StatusCode)
	}

	var payload api.LogTailResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return api.LogTailResponse{}, err
	}
	return payload, nil
}

// IsAPIUnavailable reports whether err indicates the daemon API could not be
// reached, so callers can fall back to the local log file.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
