package main

import "flag"

// Options holds the demo binary's CLI flags.
type Options struct {
	// Port is advertised over mDNS and placed in the advertised discovery
	// URL; nothing in this demo listens on it.
	Port int

	// ApplicationURI is advertised on mDNS and used as the CommonName of
	// the demo's self-signed server certificate.
	ApplicationURI string

	// ServerName is the human-readable name advertised over mDNS.
	ServerName string

	// MaxSessions overrides limits.MaxSessions for this run.
	MaxSessions int

	// Advertise enables mDNS advertisement of this server.
	Advertise bool
}

// DefaultOptions returns sensible defaults for a local demo run.
func DefaultOptions() Options {
	return Options{
		Port:           4840,
		ApplicationURI: "urn:opcua-session-demo:server",
		ServerName:     "OPC UA Session Demo",
		MaxSessions:    20,
		Advertise:      false,
	}
}

// ParseFlags parses the demo's CLI flags.
func ParseFlags() Options {
	defaults := DefaultOptions()
	o := Options{}

	flag.IntVar(&o.Port, "port", defaults.Port, "OPC UA TCP port advertised over mDNS")
	flag.StringVar(&o.ApplicationURI, "application-uri", defaults.ApplicationURI, "Server ApplicationUri")
	flag.StringVar(&o.ServerName, "name", defaults.ServerName, "Server name advertised over mDNS")
	flag.IntVar(&o.MaxSessions, "max-sessions", defaults.MaxSessions, "Maximum concurrently live sessions")
	flag.BoolVar(&o.Advertise, "advertise", defaults.Advertise, "Advertise this server over mDNS")

	flag.Parse()
	return o
}
