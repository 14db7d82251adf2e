package limits

import "errors"

var (
	ErrZeroMinSessionTimeout           = errors.New("limits: MinSessionTimeoutMs must be non-zero")
	ErrMaxBelowMinSessionTimeout       = errors.New("limits: MaxSessionTimeoutMs must be >= MinSessionTimeoutMs")
	ErrZeroMaxSessions                 = errors.New("limits: MaxSessions must be non-zero")
	ErrZeroMaxSecureConnections        = errors.New("limits: MaxSecureConnections must be non-zero")
	ErrZeroMaxEndpoints                = errors.New("limits: MaxEndpointDescriptionConfigurations must be non-zero")
	ErrZeroMaxWaitingDiscoveryRequests = errors.New("limits: MaxWaitingDiscoveryRequests must be non-zero")
)
