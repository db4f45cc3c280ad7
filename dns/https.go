package dns

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fanpei91/hostsed/utils"
	"github.com/juju/ratelimit"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/idna"
)

// HandlerOverHTTPS asks a lookup endpoint of the form
// GET <endpoint>?domain=<domain> and takes the first address it returns.
type HandlerOverHTTPS struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
	bucket   *ratelimit.Bucket
}

// NewHandlerOverHTTPS builds a handler for endpoint. A ratePerSecond of zero
// or less disables throttling.
func NewHandlerOverHTTPS(endpoint string, timeout time.Duration, ratePerSecond float64) *HandlerOverHTTPS {
	h := &HandlerOverHTTPS{
		endpoint: endpoint,
		timeout:  timeout,
		client:   utils.HTTPClient(timeout, nil),
	}
	if ratePerSecond > 0 {
		capacity := int64(ratePerSecond)
		if capacity < 1 {
			capacity = 1
		}
		h.bucket = ratelimit.NewBucketWithRate(ratePerSecond, capacity)
	}
	return h
}

func (h *HandlerOverHTTPS) Lookup(ctx context.Context, domain string) (string, error) {
	if err := h.wait(ctx); err != nil {
		return "", err
	}

	u, err := url.Parse(h.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid lookup endpoint: %w", err)
	}
	q := u.Query()
	q.Set("domain", toASCII(domain))
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	logrus.Debugf("lookup %s via %s", domain, u.String())

	res, err := h.client.Do(req)
	if res != nil {
		defer res.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", domain, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("lookup %s: unexpected status: %s", domain, res.Status)
	}

	rr := &response{}
	if err := json.NewDecoder(res.Body).Decode(rr); err != nil {
		return "", fmt.Errorf("lookup %s: decode response: %w", domain, err)
	}

	if len(rr.IPAddresses) == 0 {
		if rr.Message != "" {
			return "", fmt.Errorf("lookup %s: %s: %w", domain, rr.Message, ErrNoAddress)
		}
		return "", fmt.Errorf("lookup %s: %w", domain, ErrNoAddress)
	}

	return rr.IPAddresses[0], nil
}

func (h *HandlerOverHTTPS) wait(ctx context.Context) error {
	if h.bucket == nil {
		return nil
	}

	d := h.bucket.Take(1)
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *HandlerOverHTTPS) String() string {
	return fmt.Sprintf(
		"HTTPS[endpoint: %s, timeout: %v, throttled: %v]",
		h.endpoint,
		h.timeout,
		h.bucket != nil,
	)
}

type response struct {
	IPAddresses []string `json:"ip_addresses"`
	Message     string   `json:"message"`
	Status      int      `json:"status"`
}

// toASCII converts internationalized names to punycode and leaves anything it
// cannot convert untouched.
func toASCII(domain string) string {
	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return domain
	}
	return strings.ToLower(ascii)
}
