package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// DefaultResolveTimeout bounds a single browse operation.
const DefaultResolveTimeout = 3 * time.Second

// ServerEntry is a discovered OPC UA server.
type ServerEntry struct {
	Instance  string
	Addresses []net.IP
	Port      int
	TXT       ServerTXT
}

// mdnsBrowser abstracts zeroconf.Resolver for testability.
type mdnsBrowser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// zeroconfBrowser adapts *zeroconf.Resolver to mdnsBrowser.
type zeroconfBrowser struct {
	resolver *zeroconf.Resolver
}

func (z zeroconfBrowser) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	return z.resolver.Browse(ctx, service, domain, entries)
}

// ResolverConfig configures the Resolver.
type ResolverConfig struct {
	// Browser overrides the underlying mDNS browser implementation, for
	// tests. If nil, a production zeroconf.Resolver is used.
	Browser mdnsBrowser

	// LoggerFactory builds the component's leveled logger.
	LoggerFactory logging.LoggerFactory
}

// Resolver performs FindServersOnNetwork-style discovery by browsing the
// OPC UA mDNS service type and decoding each advertised server's TXT record.
type Resolver struct {
	config  ResolverConfig
	browser mdnsBrowser
	log     logging.LeveledLogger
}

// NewResolver creates a new Resolver.
func NewResolver(config ResolverConfig) (*Resolver, error) {
	r := &Resolver{config: config}
	if config.LoggerFactory != nil {
		r.log = config.LoggerFactory.NewLogger("discovery")
	}

	if config.Browser != nil {
		r.browser = config.Browser
		return r, nil
	}

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: creating resolver: %w", err)
	}
	r.browser = zeroconfBrowser{resolver: resolver}
	return r, nil
}

// FindServers browses the network for the given duration (or
// DefaultResolveTimeout if timeout is zero) and returns every server whose
// TXT record decodes successfully. Malformed entries are logged and
// skipped, never returned as an error, mirroring how GetEndpoints callers
// tolerate a partially-reachable network.
func (r *Resolver) FindServers(ctx context.Context, timeout time.Duration) ([]ServerEntry, error) {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 16)
	var results []ServerEntry

	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			txt, err := DecodeServerTXT(entry.Text)
			if err != nil {
				if r.log != nil {
					r.log.Warnf("discovery: skipping malformed TXT record from %s: %v", entry.Instance, err)
				}
				continue
			}
			addrs := append([]net.IP{}, entry.AddrIPv4...)
			addrs = append(addrs, entry.AddrIPv6...)
			results = append(results, ServerEntry{
				Instance:  entry.Instance,
				Addresses: addrs,
				Port:      entry.Port,
				TXT:       txt,
			})
		}
	}()

	if err := r.browser.Browse(ctx, ServiceServer, DefaultDomain, entries); err != nil {
		return nil, fmt.Errorf("discovery: browse failed: %w", err)
	}

	<-ctx.Done()
	<-done

	return results, nil
}
