// opcua-session-demo wires every session-layer component together: the
// Services Looper (session table + state machine), the Timeout Manager,
// the Application Dispatcher, the Discovery Request Queue, the Services
// Bridge, and (optionally) mDNS advertisement. It has no real Secure
// Channels or byte-level transport — those are out of scope — so it drives
// the wiring directly from local calls instead of a network listener, to
// demonstrate the session layer's behavior end to end.
//
// Usage:
//
//	opcua-session-demo [options]
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"golang.org/x/sync/errgroup"

	"github.com/opcua-stack/session-layer/pkg/appdispatch"
	"github.com/opcua-stack/session-layer/pkg/cryptoadapter"
	"github.com/opcua-stack/session-layer/pkg/discovery"
	"github.com/opcua-stack/session-layer/pkg/discoveryqueue"
	"github.com/opcua-stack/session-layer/pkg/limits"
	"github.com/opcua-stack/session-layer/pkg/metrics"
	"github.com/opcua-stack/session-layer/pkg/servicesbridge"
	"github.com/opcua-stack/session-layer/pkg/session"
	"github.com/opcua-stack/session-layer/pkg/sessiontimeout"
	"github.com/opcua-stack/session-layer/pkg/usertoken"
	"github.com/prometheus/client_golang/prometheus"
)

// allowAllAuth accepts every user identity it is asked to validate — a
// stand-in Authentication Manager for the demo; a real deployment supplies
// its own.
type allowAllAuth struct{}

func (allowAllAuth) Validate(usertoken.Token) usertoken.ValidationStatus {
	return usertoken.StatusOk
}

func main() {
	opts := ParseFlags()

	if err := limits.Validate(); err != nil {
		log.Fatalf("invalid limits configuration: %v", err)
	}

	loggerFactory := logging.NewDefaultLoggerFactory()
	met := metrics.New(prometheus.DefaultRegisterer)

	serverCertDER, serverKey, err := generateSelfSignedCert(opts.ApplicationURI)
	if err != nil {
		log.Fatalf("generate server certificate: %v", err)
	}

	instanceName := opts.ServerName + "-" + uuid.NewString()

	dispatcher := appdispatch.New(appdispatch.Config{
		Capacity:      limits.MaxAsyncQueueElements,
		LoggerFactory: loggerFactory,
		Callbacks: appdispatch.Callbacks{
			OnActivatedSession: func(ev appdispatch.ActivatedSession) {
				log.Printf("session %d activated (app context: %v)", ev.SessionID, ev.AppContext)
			},
			OnSessionActivationFailure: func(ev appdispatch.SessionActivationFailure) {
				log.Printf("session %d activation failed: %s", ev.SessionID, ev.Status)
			},
			OnClosedSession: func(ev appdispatch.ClosedSession) {
				log.Printf("session %d closed: %s", ev.SessionID, ev.Status)
			},
			OnSendRequestFailed: func(ev appdispatch.SendRequestFailed) {
				log.Printf("send failed for %s: %s", ev.MessageType, ev.Status)
			},
		},
	})
	if err := dispatcher.Run(); err != nil {
		log.Fatalf("start application dispatcher: %v", err)
	}

	notifier := &sessionNotifier{disp: dispatcher, metrics: met}

	mgr, err := session.NewManager(session.Config{
		MaxSessions:       opts.MaxSessions,
		ServerCertificate: serverCertDER,
		ServerKey:         serverKey,
		Auth:              allowAllAuth{},
		Dispatcher:        notifier,
		LooperCapacity:    limits.MaxAsyncQueueElements,
		LoggerFactory:     loggerFactory,
	})
	if err != nil {
		log.Fatalf("construct session manager: %v", err)
	}
	if err := mgr.Run(); err != nil {
		log.Fatalf("start services looper: %v", err)
	}

	timeouts := sessiontimeout.New(sessiontimeout.Config{Looper: mgr.Looper(), LoggerFactory: loggerFactory})

	bridge := servicesbridge.New(servicesbridge.Config{
		Services:           mgr.Looper(),
		ActiveSessionCount: func() int { return 0 },
		LoggerFactory:      loggerFactory,
	})
	_ = bridge // exercised once a real SecureChannels collaborator drives CloseAllConnections

	discoveryQ := discoveryqueue.New(discoveryqueue.Config{
		Dispatcher:    dispatcher,
		LoggerFactory: loggerFactory,
	})

	var adv *discovery.Advertiser
	if opts.Advertise {
		adv, err = discovery.NewAdvertiser(discovery.AdvertiserConfig{
			InstanceName:  instanceName,
			Port:          opts.Port,
			LoggerFactory: loggerFactory,
		})
		if err != nil {
			log.Fatalf("construct mDNS advertiser: %v", err)
		}
		if err := adv.Start(discovery.ServerTXT{
			ApplicationURI:  opts.ApplicationURI,
			ApplicationName: opts.ServerName,
			ApplicationType: discovery.ApplicationTypeServer,
			DiscoveryURL:    fmt.Sprintf("opc.tcp://localhost:%d", opts.Port),
		}); err != nil {
			log.Fatalf("start mDNS advertisement: %v", err)
		}
		log.Printf("advertising %s as %q over mDNS on port %d", opts.ApplicationURI, instanceName, opts.Port)
	}

	log.Printf("%s ready (max sessions: %d)", opts.ServerName, opts.MaxSessions)

	waitForSignal()

	// Shut every owned resource down concurrently rather than in a fixed
	// defer order — they don't depend on each other's teardown.
	var g errgroup.Group
	g.Go(func() error { timeouts.CancelAll(); return nil })
	g.Go(func() error { discoveryQ.Shutdown(); return nil })
	g.Go(func() error { dispatcher.Stop(); return nil })
	g.Go(func() error { mgr.Stop(); return nil })
	if adv != nil {
		g.Go(func() error { return adv.Close() })
	}
	if err := g.Wait(); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// sessionNotifier adapts the Application Dispatcher and the metrics
// recorder into the single Notifier the Services Looper calls back into.
type sessionNotifier struct {
	disp    *appdispatch.Dispatcher
	metrics *metrics.Metrics
}

func (n *sessionNotifier) ActivatedSession(id session.ID, appContext any) {
	n.metrics.ActivationResult("good")
	n.metrics.SessionCreated(true)
	_ = n.disp.PostActivatedSession(appdispatch.ActivatedSession{SessionID: id, AppContext: appContext})
}

func (n *sessionNotifier) SessionReactivating(id session.ID, appContext any) {
	_ = n.disp.PostSessionReactivating(appdispatch.SessionReactivating{SessionID: id, AppContext: appContext})
}

func (n *sessionNotifier) SessionActivationFailure(id session.ID, status session.Status, appContext any) {
	n.metrics.ActivationResult(status.String())
	_ = n.disp.PostSessionActivationFailure(appdispatch.SessionActivationFailure{SessionID: id, Status: status, AppContext: appContext})
}

func (n *sessionNotifier) ClosedSession(id session.ID, status session.Status, appContext any) {
	n.metrics.SessionClosed(status.String())
	_ = n.disp.PostClosedSession(appdispatch.ClosedSession{SessionID: id, Status: status, AppContext: appContext})
}

func (n *sessionNotifier) AllDisconnected(clientOnly bool) {
	log.Printf("all connections disconnected (client only: %v)", clientOnly)
}

// generateSelfSignedCert produces an ad hoc RSA key pair and certificate for
// the demo server. A real deployment would read these from its endpoint
// configuration at boot instead of minting a throwaway identity.
func generateSelfSignedCert(applicationURI string) ([]byte, *rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: applicationURI},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, nil, err
	}
	return der, key, nil
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal: %v, shutting down", sig)
}

// cryptoadapter is imported for its security-policy selection; referenced
// here so the demo documents which policies a real deployment would wire
// per endpoint configuration.
var _ = cryptoadapter.PolicyBasic256Sha256
