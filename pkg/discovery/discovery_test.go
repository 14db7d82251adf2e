package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerTXTRoundTrip(t *testing.T) {
	txt := ServerTXT{
		ApplicationURI:  "urn:example:server",
		ApplicationName: "Example Server",
		ProductURI:      "urn:example:product",
		DiscoveryURL:    "opc.tcp://example:4840",
		ApplicationType: ApplicationTypeServer,
		Capabilities:    []string{"LDS", "DA"},
	}

	decoded, err := DecodeServerTXT(txt.Encode())
	require.NoError(t, err)
	assert.Equal(t, txt, decoded)
}

func TestServerTXTValidate(t *testing.T) {
	txt := ServerTXT{ApplicationType: ApplicationTypeServer}
	assert.ErrorIs(t, txt.Validate(), ErrInvalidApplicationURI)
}

func TestAdvertiserStartStop(t *testing.T) {
	reg := NewMemoryRegistry()
	adv, err := NewAdvertiser(AdvertiserConfig{ServerFactory: reg, Port: 4840})
	require.NoError(t, err)

	txt := ServerTXT{ApplicationURI: "urn:example:server", ApplicationType: ApplicationTypeServer}
	require.NoError(t, adv.Start(txt))
	assert.True(t, adv.IsAdvertising())

	assert.ErrorIs(t, adv.Start(txt), ErrAlreadyStarted)

	require.NoError(t, adv.Stop())
	assert.False(t, adv.IsAdvertising())
	assert.ErrorIs(t, adv.Stop(), ErrNotStarted)

	require.NoError(t, adv.Close())
	assert.ErrorIs(t, adv.Close(), ErrClosed)
}

func TestResolverFindServers(t *testing.T) {
	reg := NewMemoryRegistry()
	adv, err := NewAdvertiser(AdvertiserConfig{ServerFactory: reg, Port: 4840})
	require.NoError(t, err)

	txt := ServerTXT{
		ApplicationURI:  "urn:example:server",
		DiscoveryURL:    "opc.tcp://127.0.0.1:4840",
		ApplicationType: ApplicationTypeServer,
	}
	require.NoError(t, adv.Start(txt))

	resolver, err := NewResolver(ResolverConfig{Browser: reg})
	require.NoError(t, err)

	entries, err := resolver.FindServers(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, txt.ApplicationURI, entries[0].TXT.ApplicationURI)
	assert.Equal(t, txt.DiscoveryURL, entries[0].TXT.DiscoveryURL)
}
