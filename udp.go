package usox

import (
	"net"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// UDPCallbacks mirrors Callbacks but for the connectionless UDP surface,
// which has no open/close lifecycle per peer — just datagrams in and a
// single close for the socket itself.
type UDPCallbacks struct {
	OnData  func(u *UDPSocket, data []byte, from net.Addr)
	OnDrain func(u *UDPSocket)
}

type UDPSocket struct {
	sock    *Socket
	cb      UDPCallbacks
	loop    *Loop
	blocked bool
}

func (c *Context) NewUDPSocket(network, address string, cb UDPCallbacks) (*UDPSocket, error) {
	domain, _, sa, err := resolveSockaddr(network, address)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(domain, unix.SOCK_DGRAM, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, err
	}

	s := newSocket(c.loop, c, fd, PollTypeUDP)
	c.addSocket(s)
	c.loop.registerFd(fd, s)
	if err := c.loop.poller.AddRead(fd); err != nil {
		return nil, err
	}
	u := &UDPSocket{sock: s, cb: cb, loop: c.loop}
	c.loop.udpSockets[fd] = u
	return u, nil
}

func (u *UDPSocket) Fd() int { return u.sock.fd }

// Send writes one datagram. A blocked send (EAGAIN) is not an error: it
// arms WRITABLE interest and is reported via OnDrain once the socket can
// take more, same as Socket.Write's blocked-write handling.
func (u *UDPSocket) Send(b []byte, addr *net.UDPAddr) error {
	var sa unix.Sockaddr
	if ip4 := addr.IP.To4(); ip4 != nil {
		sa4 := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa4.Addr[:], ip4)
		sa = sa4
	} else {
		sa6 := &unix.SockaddrInet6{Port: addr.Port}
		copy(sa6.Addr[:], addr.IP.To16())
		sa = sa6
	}
	err := unix.Sendto(u.sock.fd, b, 0, sa)
	if err == unix.EAGAIN {
		u.blocked = true
		if modErr := u.loop.poller.Modify(u.sock.fd, true, true); modErr != nil {
			log.Error().Msgf("poller modify fd=%d: %+v", u.sock.fd, modErr)
		}
		return nil
	}
	return err
}

// drain runs on a WRITABLE event for this fd; it only matters if Send
// previously blocked, in which case OnDrain tells the caller it can retry,
// and WRITABLE interest is cleared again to avoid firing every iteration.
func (u *UDPSocket) drain() {
	if !u.blocked {
		return
	}
	u.blocked = false
	if cb := u.cb.OnDrain; cb != nil {
		cb(u)
	}
	if u.sock.closed {
		return
	}
	if err := u.loop.poller.Modify(u.sock.fd, true, false); err != nil {
		log.Error().Msgf("poller modify fd=%d: %+v", u.sock.fd, err)
	}
}

func (u *UDPSocket) Close() {
	delete(u.loop.udpSockets, u.sock.fd)
	u.sock.Close(CloseCleanShutdown, "udp socket closed")
}

// readDatagram is called from dispatch.go when a PollTypeUDP fd becomes
// readable; drains one recvfrom per call, matching the single-datagram
// dispatch the original core does per readiness notification for UDP
// (unlike the drain-to-EAGAIN accept loop).
func (u *UDPSocket) readDatagram() {
	pad := u.loop.cfg.RecvBufferPadding
	buf := u.loop.recvBuf[pad : pad+u.loop.cfg.RecvBufferLength]
	n, from, err := unix.Recvfrom(u.sock.fd, buf, 0)
	if err != nil {
		if err != unix.EAGAIN {
			log.Error().Msgf("udp recvfrom fd=%d: %+v", u.sock.fd, err)
			u.Close()
		}
		return
	}
	if u.cb.OnData == nil {
		return
	}
	u.cb.OnData(u, buf[:n], sockaddrToAddr(from))
}
