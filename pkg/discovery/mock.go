package discovery

import (
	"context"
	"net"
	"sync"

	"github.com/grandcat/zeroconf"
)

// MemoryRegistry is an in-process stand-in for the mDNS network, used by
// tests to advertise and resolve without touching real sockets.
type MemoryRegistry struct {
	mu       sync.Mutex
	services map[string]*zeroconf.ServiceEntry
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{services: make(map[string]*zeroconf.ServiceEntry)}
}

// memoryServer implements MDNSServer by deregistering from the registry on Shutdown.
type memoryServer struct {
	reg      *MemoryRegistry
	instance string
}

func (s *memoryServer) Shutdown() {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	delete(s.reg.services, s.instance)
}

// Register implements MDNSServerFactory.
func (reg *MemoryRegistry) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.services[instance] = &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{
			Instance: instance,
			Service:  service,
			Domain:   domain,
		},
		Port:     port,
		Text:     txt,
		AddrIPv4: []net.IP{net.ParseIP("127.0.0.1").To4()},
	}
	return &memoryServer{reg: reg, instance: instance}, nil
}

// Browse implements mdnsBrowser: it snapshots the entries currently
// registered for service and domain and returns at once. A goroutine
// writes the snapshot to entries and closes entries once ctx is done.
func (reg *MemoryRegistry) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	reg.mu.Lock()
	snapshot := make([]*zeroconf.ServiceEntry, 0, len(reg.services))
	for _, e := range reg.services {
		if e.Service == service && e.Domain == domain {
			snapshot = append(snapshot, e)
		}
	}
	reg.mu.Unlock()

	go func() {
		for _, e := range snapshot {
			select {
			case entries <- e:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
		close(entries)
	}()
	return nil
}
