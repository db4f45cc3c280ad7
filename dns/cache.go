package dns

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/sirupsen/logrus"
)

const (
	cacheSize = 2 << 10
)

// HandlerOverCache tries its upstreams in order and remembers successful
// answers for ttl. Concurrent lookups of the same domain share one upstream
// round trip.
type HandlerOverCache struct {
	sync.Mutex
	upstreams []Handler
	cache     *lru.Cache
	ttl       time.Duration
}

func NewHandlerOverCache(upstreams []Handler, ttl time.Duration) *HandlerOverCache {
	return &HandlerOverCache{
		cache:     lru.New(cacheSize),
		upstreams: upstreams,
		ttl:       ttl,
	}
}

type answerCache struct {
	ip        string
	err       error
	expiredAt time.Time
}

type resolver struct {
	waiters  []chan answerCache
	answer   answerCache
	finished bool
}

func (d *HandlerOverCache) Lookup(ctx context.Context, domain string) (string, error) {
	d.Lock()

	cached, ok := d.cache.Get(domain)
	var r *resolver
	if !ok {
		r = &resolver{}
		d.cache.Add(domain, r)
	} else {
		r = cached.(*resolver)
		if r.finished && (isFresh(ctx) || r.answer.err != nil || !time.Now().Before(r.answer.expiredAt)) {
			r.finished = false
			ok = false
		}
	}

	if r.finished {
		d.Unlock()
		logrus.Debugf("lookup %s served from cache: %s", domain, r.answer.ip)
		return r.answer.ip, nil
	}

	ch := make(chan answerCache, 1)
	r.waiters = append(r.waiters, ch)
	d.Unlock()

	if !ok {
		go d.do(context.WithoutCancel(ctx), domain, r)
	}

	select {
	case answer := <-ch:
		return answer.ip, answer.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (d *HandlerOverCache) String() string {
	names := make([]string, len(d.upstreams))
	for i, u := range d.upstreams {
		names[i] = u.String()
	}
	return "CACHE[" + strings.Join(names, ", ") + "]"
}

func (d *HandlerOverCache) do(ctx context.Context, domain string, r *resolver) {
	var ip string
	var errs []error

	for _, upstream := range d.upstreams {
		var err error
		if ip, err = upstream.Lookup(ctx, domain); err == nil {
			break
		}
		logrus.Debugf("%s failed to lookup %s: %v", upstream, domain, err)
		errs = append(errs, err)
	}

	answer := answerCache{ip: ip, expiredAt: time.Now().Add(d.ttl)}
	if ip == "" {
		answer.err = errors.Join(errs...)
		if answer.err == nil {
			answer.err = ErrNoAddress
		}
	}

	d.Lock()
	defer d.Unlock()

	r.finished = true
	r.answer = answer

	for _, ch := range r.waiters {
		ch <- r.answer
		close(ch)
	}
	r.waiters = nil
}
