package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opcua-stack/session-layer/pkg/session"
)

type fakeSecureChannels struct{ opened []int }

func (f *fakeSecureChannels) EpOpen(idx int) error          { f.opened = append(f.opened, idx); return nil }
func (f *fakeSecureChannels) EpClose(int) error              { return nil }
func (f *fakeSecureChannels) ReverseEpOpen(int, string) error { return nil }
func (f *fakeSecureChannels) ReverseEpClose(int) error        { return nil }
func (f *fakeSecureChannels) ScServiceSendMsg(uint32, any) error { return nil }
func (f *fakeSecureChannels) ScDisconnect(uint32) error       { return nil }
func (f *fakeSecureChannels) ScDisconnectedAck(uint32) error  { return nil }
func (f *fakeSecureChannels) ScsReevaluate() error            { return nil }

type fakeAuthz struct{ allow bool }

func (f fakeAuthz) Decide(RequestContext, string) bool { return f.allow }

func TestSecureChannelsFakeSatisfiesInterface(t *testing.T) {
	var sc SecureChannels = &fakeSecureChannels{}
	assert.NoError(t, sc.EpOpen(3))
	assert.NoError(t, sc.ScDisconnect(1))
}

func TestAuthorizationManagerDecide(t *testing.T) {
	var az AuthorizationManager = fakeAuthz{allow: true}
	assert.True(t, az.Decide(RequestContext{SessionID: session.ID(1)}, "Read"))
}
