//go:build !linux

package usox

// newPoller has no real adapter outside Linux here; the polling primitive's
// kernel internals are out of scope (spec non-goal), only the interface is.
func newPoller(eventsBufferSize int) (Poller, error) {
	return nil, errUnsupportedPoller
}
