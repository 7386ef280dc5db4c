package usox

import "errors"

// Close codes passed to Callbacks.OnClose / Callbacks.OnConnectError.
// CLEAN_SHUTDOWN and GENERIC_ERR come straight from the original C core;
// the rest cover connect-time failures that never reach on_close.
const (
	CloseCleanShutdown = 1
	CloseGenericErr    = 2
	CloseConnectFailed = 3
	CloseConnectTLS    = 4
)

var (
	errNoActiveBackends  = errors.New("usox: no active backends")
	errBalancerNotFound  = errors.New("usox: balancer not found")
	errSocketClosed      = errors.New("usox: socket is closed")
	errContextClosed     = errors.New("usox: context is closed")
	errLoopStopped       = errors.New("usox: loop is not running")
	errMutexSizeMismatch = errors.New("usox: mutex footprint does not match compile-time constant")
	errUnsupportedPoller = errors.New("usox: no readiness poller adapter for this platform")
	errInvalidNetwork    = errors.New("usox: unsupported network")
	errUnknownConfigExt  = errors.New("usox: config file must end in .toml, .yaml or .yml")
)
