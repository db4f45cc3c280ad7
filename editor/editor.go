package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fanpei91/hostsed/dns"
	"github.com/fanpei91/hostsed/hosts"
	"github.com/fanpei91/hostsed/ipdb"
	"github.com/fanpei91/hostsed/system"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Editor is one editing session over a hosts file.
type Editor struct {
	store    *hosts.Store
	resolver dns.Handler
	writer   system.Writer
	notifier Notifier
	saves    sync.WaitGroup
}

func New(store *hosts.Store, resolver dns.Handler, writer system.Writer, notifier Notifier) *Editor {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Editor{
		store:    store,
		resolver: resolver,
		writer:   writer,
		notifier: notifier,
	}
}

func (e *Editor) Store() *hosts.Store {
	return e.store
}

// Search ranks every mapping against query. Deleted mappings stay listed.
func (e *Editor) Search(query string) []*hosts.Mapping {
	return e.store.Visible(query)
}

func (e *Editor) ToggleDeleted(id int) {
	e.store.ToggleDeleted(id)
	if l, ok := e.store.Get(id); ok {
		logrus.Debugf("line %d deleted=%v", id, l.IsDeleted())
	}
}

// Preview is the file content Save would write.
func (e *Editor) Preview() string {
	return e.store.Text()
}

// Renew looks up every domain of the mapping concurrently and, once all of
// them have answered, assigns the address found for the first domain. A
// single failed lookup fails the whole renew and leaves the line untouched.
// Cached answers are never reused: every renew asks the upstreams again.
// Ids of comments or unknown lines are ignored.
func (e *Editor) Renew(ctx context.Context, id int) error {
	l, ok := e.store.Get(id)
	if !ok {
		return nil
	}
	m, ok := l.(*hosts.Mapping)
	if !ok || len(m.Domains) == 0 {
		return nil
	}

	ips := make([]string, len(m.Domains))
	g, gctx := errgroup.WithContext(dns.Fresh(ctx))
	for i, domain := range m.Domains {
		i, domain := i, domain
		g.Go(func() error {
			ip, err := e.resolver.Lookup(gctx, domain)
			if err != nil {
				return err
			}
			ips[i] = ip
			return nil
		})
	}

	name := strings.Join(m.Domains, " ")
	if err := g.Wait(); err != nil {
		e.notifier.Notify(Alert{
			Level:   logrus.ErrorLevel,
			Message: fmt.Sprintf("failed to renew %s: %v", name, err),
		})
		return fmt.Errorf("renew %s: %w", name, err)
	}

	ip := ips[0]
	e.store.SetIP(id, ip)

	logrus.Infof("renewed %s: %s -> %s (%s)", name, m.IP, ip, ipdb.Scope(ip))
	e.notifier.Notify(Alert{
		Level:   logrus.InfoLevel,
		Message: fmt.Sprintf("%s -> %s", name, ip),
	})
	return nil
}

// RenewAll renews every mapping that is not deleted, one after another.
func (e *Editor) RenewAll(ctx context.Context) (renewed, failed int) {
	for _, m := range e.store.Mappings() {
		if m.IsDeleted() || len(m.Domains) == 0 {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		if err := e.Renew(ctx, m.ID); err != nil {
			failed++
			continue
		}
		renewed++
	}

	logrus.Infof("renew all: %d renewed, %d failed", renewed, failed)
	return renewed, failed
}

// Save hands the rendered file to the writer in the background and returns
// immediately.
func (e *Editor) Save() {
	text := e.store.Text()

	e.saves.Add(1)
	go func() {
		defer e.saves.Done()

		if err := e.writer.Write(text); err != nil {
			logrus.Errorf("failed to save hosts: %v", err)
			e.notifier.Notify(Alert{
				Level:   logrus.ErrorLevel,
				Message: fmt.Sprintf("failed to save: %v", err),
			})
			return
		}

		e.notifier.Notify(Alert{Level: logrus.InfoLevel, Message: "saved"})
	}()
}

// Wait blocks until every Save started so far has finished.
func (e *Editor) Wait() {
	e.saves.Wait()
}
