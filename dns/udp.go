package dns

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"
)

// HandlerOverUDP asks a plain DNS server for an A record.
type HandlerOverUDP struct {
	upstream string
	timeout  time.Duration
	client   *dns.Client
}

func NewHandlerOverUDP(upstream string, timeout time.Duration) *HandlerOverUDP {
	return &HandlerOverUDP{
		upstream: upstream,
		timeout:  timeout,
		client: &dns.Client{
			Net:     "udp",
			Timeout: timeout,
		},
	}
}

func (h *HandlerOverUDP) Lookup(ctx context.Context, domain string) (string, error) {
	question := new(dns.Msg)
	question.SetQuestion(dns.Fqdn(toASCII(domain)), dns.TypeA)
	question.RecursionDesired = true

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	answer, _, err := h.client.ExchangeContext(ctx, question, h.upstream)
	if err != nil {
		return "", fmt.Errorf("lookup %s via %s: %w", domain, h.upstream, err)
	}

	if answer.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("lookup %s via %s: %s", domain, h.upstream, dns.RcodeToString[answer.Rcode])
	}

	for _, rr := range answer.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String(), nil
		}
	}

	return "", fmt.Errorf("lookup %s via %s: %w", domain, h.upstream, ErrNoAddress)
}

func (h *HandlerOverUDP) String() string {
	return fmt.Sprintf("UDP[upstream: %v, timeout: %v]", h.upstream, h.timeout)
}
