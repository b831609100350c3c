package probe

import (
	"context"
	"net"
	"time"
)

// DefaultTimeout bounds a single probe attempt.
const DefaultTimeout = 3 * time.Second

// Checker reports reachability. Implementations never return errors and never
// block longer than their own timeout.
type Checker interface {
	Check(ctx context.Context) bool
}

// Func adapts a plain function to Checker.
type Func func(ctx context.Context) bool

// Check implements Checker.
func (f Func) Check(ctx context.Context) bool { return f(ctx) }

// TCP dials a well-known host:port, e.g. a public DNS server on port 53.
type TCP struct {
	Address string
	Timeout time.Duration
}

// Check implements Checker.
func (p TCP) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(p.Timeout))
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Resolve succeeds when Host resolves to at least one address.
type Resolve struct {
	Host     string
	Timeout  time.Duration
	Resolver *net.Resolver
}

// Check implements Checker.
func (p Resolve) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(p.Timeout))
	defer cancel()

	r := p.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	addrs, err := r.LookupHost(ctx, p.Host)
	return err == nil && len(addrs) > 0
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}

// FromAddress picks TCP for a host:port address and Resolve for a bare
// hostname.
func FromAddress(address string, timeout time.Duration) Checker {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return TCP{Address: address, Timeout: timeout}
	}
	return Resolve{Host: address, Timeout: timeout}
}
