package usox

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// applySocketOptions configures a freshly accepted/connected fd the way
// the teacher's setTcpSocketOptions/setTlsSocketOptions did, generalized
// to take its buffer sizes from LoopConfig instead of a hardcoded 8192.
func applySocketOptions(fd int, cfg LoopConfig) {
	if err := unix.SetNonblock(fd, true); err != nil {
		log.Error().Msgf("fd=%d set O_NONBLOCK: %+v", fd, err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.RecvBufferLength); err != nil {
		log.Error().Msgf("fd=%d set SO_RCVBUF: %+v", fd, err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.SendBufferLength); err != nil {
		log.Error().Msgf("fd=%d set SO_SNDBUF: %+v", fd, err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		log.Debug().Msgf("fd=%d set TCP_NODELAY: %+v (may be a non-TCP fd)", fd, err)
	}
}

func applyListenerOptions(fd int) {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		log.Error().Msgf("fd=%d set SO_REUSEADDR: %+v", fd, err)
	}
}

// applyReusePort is split out from applyListenerOptions since it's only
// meaningful for LoopGroup's sharded listeners (see loopgroup.go).
func applyReusePort(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}
