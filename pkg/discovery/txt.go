package discovery

import (
	"fmt"
	"strconv"
	"strings"
)

// ServerTXT carries the TXT record attributes advertised for an OPC UA
// server, mirroring the fields a client would otherwise only learn from a
// GetEndpoints round trip. Keys follow the "key=value" TXT convention used
// by DNS-SD (RFC 6763 §6).
type ServerTXT struct {
	// ApplicationURI is the server's unique ApplicationUri (required).
	ApplicationURI string

	// ApplicationName is a human-readable display name (optional).
	ApplicationName string

	// ProductURI identifies the product (optional).
	ProductURI string

	// DiscoveryURL is the endpoint URL clients should use for GetEndpoints.
	DiscoveryURL string

	// ApplicationType is the server's declared ApplicationType.
	ApplicationType ApplicationType

	// Capabilities is the ServerCapabilities list (e.g. "LDS", "DA", "HD").
	Capabilities []string

	// Path is an optional URL path segment appended to the resolved address.
	Path string
}

// Validate checks that required fields are present.
func (t ServerTXT) Validate() error {
	if t.ApplicationURI == "" {
		return ErrInvalidApplicationURI
	}
	if !t.ApplicationType.IsValid() {
		return ErrInvalidTXTRecord
	}
	return nil
}

// Encode renders the TXT record as "key=value" strings suitable for
// zeroconf.Register.
func (t ServerTXT) Encode() []string {
	records := []string{
		"uri=" + t.ApplicationURI,
		"apptype=" + strconv.Itoa(int(t.ApplicationType)),
	}
	if t.ApplicationName != "" {
		records = append(records, "name="+t.ApplicationName)
	}
	if t.ProductURI != "" {
		records = append(records, "product="+t.ProductURI)
	}
	if t.DiscoveryURL != "" {
		records = append(records, "discurl="+t.DiscoveryURL)
	}
	if len(t.Capabilities) > 0 {
		records = append(records, "caps="+strings.Join(t.Capabilities, ","))
	}
	if t.Path != "" {
		records = append(records, "path="+t.Path)
	}
	return records
}

// DecodeServerTXT parses TXT records produced by Encode.
func DecodeServerTXT(records []string) (ServerTXT, error) {
	var t ServerTXT
	for _, r := range records {
		key, value, ok := strings.Cut(r, "=")
		if !ok {
			continue
		}
		switch key {
		case "uri":
			t.ApplicationURI = value
		case "name":
			t.ApplicationName = value
		case "product":
			t.ProductURI = value
		case "discurl":
			t.DiscoveryURL = value
		case "apptype":
			n, err := strconv.Atoi(value)
			if err != nil {
				return ServerTXT{}, fmt.Errorf("discovery: decoding apptype: %w", err)
			}
			t.ApplicationType = ApplicationType(n)
		case "caps":
			if value != "" {
				t.Capabilities = strings.Split(value, ",")
			}
		case "path":
			t.Path = value
		}
	}
	if err := t.Validate(); err != nil {
		return ServerTXT{}, err
	}
	return t, nil
}
