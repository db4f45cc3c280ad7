package dns

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestHandlerOverHTTPS(t *testing.T) {
	var mu sync.Mutex
	var gotDomain string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		domain := r.URL.Query().Get("domain")
		mu.Lock()
		gotDomain = domain
		mu.Unlock()
		switch domain {
		case "foo.example":
			w.Write([]byte(`{"ip_addresses":["93.184.216.34","93.184.216.35"],"message":"ok","status":200}`))
		case "empty.example":
			w.Write([]byte(`{"ip_addresses":[],"message":"not found","status":404}`))
		case "broken.example":
			w.Write([]byte(`{"ip_addresses":`))
		default:
			http.Error(w, "boom", http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	h := NewHandlerOverHTTPS(srv.URL+"/lookup", time.Second, 0)
	ctx := context.Background()

	ip, err := h.Lookup(ctx, "foo.example")
	require.NoError(t, err)
	require.Equal(t, "93.184.216.34", ip)

	_, err = h.Lookup(ctx, "empty.example")
	require.ErrorIs(t, err, ErrNoAddress)

	_, err = h.Lookup(ctx, "broken.example")
	require.Error(t, err)

	_, err = h.Lookup(ctx, "other.example")
	require.ErrorContains(t, err, "502")

	_, _ = h.Lookup(ctx, "bücher.example")
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "xn--bcher-kva.example", gotDomain)
}

func TestHandlerOverHTTPSTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	h := NewHandlerOverHTTPS(srv.URL, 50*time.Millisecond, 0)
	_, err := h.Lookup(context.Background(), "slow.example")
	require.Error(t, err)
}

func TestHandlerOverHTTPSThrottle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip_addresses":["10.0.0.1"]}`))
	}))
	defer srv.Close()

	h := NewHandlerOverHTTPS(srv.URL, time.Second, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := h.Lookup(ctx, "a.example")
	require.NoError(t, err)

	_, err = h.Lookup(ctx, "b.example")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHandlerOverUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(r)
			switch r.Question[0].Name {
			case "foo.example.":
				m.Answer = append(m.Answer, &dns.A{
					Hdr: dns.RR_Header{Name: r.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
					A:   net.ParseIP("10.0.0.5"),
				})
			case "empty.example.":
			default:
				m.SetRcode(r, dns.RcodeNameError)
			}
			w.WriteMsg(m)
		}),
	}
	go server.ActivateAndServe()
	defer server.Shutdown()
	<-started

	h := NewHandlerOverUDP(pc.LocalAddr().String(), time.Second)
	ctx := context.Background()

	ip, err := h.Lookup(ctx, "foo.example")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5", ip)

	_, err = h.Lookup(ctx, "empty.example")
	require.ErrorIs(t, err, ErrNoAddress)

	_, err = h.Lookup(ctx, "missing.example")
	require.ErrorContains(t, err, "NXDOMAIN")
}

type countingHandler struct {
	mu    sync.Mutex
	calls map[string]int
	ips   map[string]string
	delay time.Duration
}

func newCountingHandler(ips map[string]string) *countingHandler {
	return &countingHandler{calls: make(map[string]int), ips: ips}
}

func (c *countingHandler) Lookup(_ context.Context, domain string) (string, error) {
	time.Sleep(c.delay)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[domain]++
	if ip, ok := c.ips[domain]; ok {
		return ip, nil
	}
	return "", errors.New("unknown " + domain)
}

func (c *countingHandler) count(domain string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[domain]
}

func (c *countingHandler) String() string {
	return "COUNTING"
}

func TestHandlerOverCache(t *testing.T) {
	first := newCountingHandler(map[string]string{"a.example": "10.0.0.1"})
	second := newCountingHandler(map[string]string{"b.example": "10.0.0.2"})
	h := NewHandlerOverCache([]Handler{first, second}, time.Minute)
	ctx := context.Background()

	ip, err := h.Lookup(ctx, "a.example")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", ip)

	ip, err = h.Lookup(ctx, "a.example")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", ip)
	require.Equal(t, 1, first.count("a.example"))

	ip, err = h.Lookup(ctx, "b.example")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.2", ip)

	_, err = h.Lookup(ctx, "c.example")
	require.Error(t, err)
	_, err = h.Lookup(ctx, "c.example")
	require.Error(t, err)
	require.Equal(t, 2, first.count("c.example"), "failures are not cached")
	require.Equal(t, 2, second.count("c.example"))
}

func TestHandlerOverCacheSharesInflight(t *testing.T) {
	upstream := newCountingHandler(map[string]string{"a.example": "10.0.0.1"})
	upstream.delay = 50 * time.Millisecond
	h := NewHandlerOverCache([]Handler{upstream}, 0)

	var wg sync.WaitGroup
	var ok int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ip, err := h.Lookup(context.Background(), "a.example"); err == nil && ip == "10.0.0.1" {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(5), ok)
	require.LessOrEqual(t, upstream.count("a.example"), 5)

	// A zero ttl never serves a finished answer again.
	before := upstream.count("a.example")
	_, err := h.Lookup(context.Background(), "a.example")
	require.NoError(t, err)
	require.Equal(t, before+1, upstream.count("a.example"))
}

func TestHandlerOverCacheFresh(t *testing.T) {
	upstream := newCountingHandler(map[string]string{"a.example": "10.0.0.1"})
	h := NewHandlerOverCache([]Handler{upstream}, time.Minute)
	ctx := context.Background()

	_, err := h.Lookup(ctx, "a.example")
	require.NoError(t, err)
	_, err = h.Lookup(ctx, "a.example")
	require.NoError(t, err)
	require.Equal(t, 1, upstream.count("a.example"))

	ip, err := h.Lookup(Fresh(ctx), "a.example")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", ip)
	require.Equal(t, 2, upstream.count("a.example"))
}
