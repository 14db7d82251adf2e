package discovery

import (
	"fmt"
	"net"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// MDNSServer is the interface for an active mDNS service registration.
// Abstracted so tests can inject a fake without touching the network.
type MDNSServer interface {
	// Shutdown stops the server.
	Shutdown()
}

// MDNSServerFactory creates MDNSServer instances.
type MDNSServerFactory interface {
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error)
}

// zeroconfServerFactory is the production implementation using grandcat/zeroconf.
type zeroconfServerFactory struct{}

func (zeroconfServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// AdvertiserConfig configures the Advertiser.
type AdvertiserConfig struct {
	// InstanceName is the mDNS service instance name. If empty, ApplicationURI
	// from the TXT record is used.
	InstanceName string

	// Port is the OPC UA TCP port to advertise (default DefaultPort).
	Port int

	// Interfaces restricts advertisement to specific network interfaces.
	// If nil, all interfaces are used.
	Interfaces []net.Interface

	// ServerFactory creates the underlying mDNS server. If nil, the
	// production zeroconf factory is used.
	ServerFactory MDNSServerFactory

	// LoggerFactory builds the component's leveled logger. If nil, logging
	// is disabled.
	LoggerFactory logging.LoggerFactory
}

// Advertiser publishes an OPC UA server's presence via DNS-SD so that
// clients performing FindServersOnNetwork-style discovery can locate it
// without a Local Discovery Server.
type Advertiser struct {
	config  AdvertiserConfig
	factory MDNSServerFactory
	log     logging.LeveledLogger

	mu      sync.Mutex
	server  MDNSServer
	closed  bool
}

// NewAdvertiser creates a new Advertiser.
func NewAdvertiser(config AdvertiserConfig) (*Advertiser, error) {
	if config.Port <= 0 || config.Port > 65535 {
		config.Port = DefaultPort
	}

	factory := config.ServerFactory
	if factory == nil {
		factory = zeroconfServerFactory{}
	}

	a := &Advertiser{
		config:  config,
		factory: factory,
	}
	if config.LoggerFactory != nil {
		a.log = config.LoggerFactory.NewLogger("discovery")
	}
	return a, nil
}

// Start begins advertising the server described by txt. It is an error to
// call Start twice without an intervening Stop.
func (a *Advertiser) Start(txt ServerTXT) error {
	if err := txt.Validate(); err != nil {
		return fmt.Errorf("discovery: advertiser: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server != nil {
		return ErrAlreadyStarted
	}

	instance := a.config.InstanceName
	if instance == "" {
		instance = txt.ApplicationURI
	}

	records := txt.Encode()
	if a.log != nil {
		a.log.Debugf("registering mDNS service: instance=%s service=%s port=%d", instance, ServiceServer, a.config.Port)
		a.log.Tracef("TXT records: %v", records)
	}

	server, err := a.factory.Register(instance, ServiceServer, DefaultDomain, a.config.Port, records, a.config.Interfaces)
	if err != nil {
		return fmt.Errorf("discovery: mDNS registration failed: %w", err)
	}

	if a.log != nil {
		a.log.Infof("mDNS advertisement started for %s", txt.ApplicationURI)
	}

	a.server = server
	return nil
}

// Stop stops advertising. It is a no-op error if advertisement was never
// started.
func (a *Advertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server == nil {
		return ErrNotStarted
	}

	a.server.Shutdown()
	a.server = nil
	return nil
}

// IsAdvertising reports whether the server is currently being advertised.
func (a *Advertiser) IsAdvertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// Close stops advertising (if active) and closes the Advertiser.
func (a *Advertiser) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	a.closed = true
	return nil
}
