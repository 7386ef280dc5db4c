package usox

import (
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// resolveSockaddr turns a Go "network"/"address" pair into a raw
// unix.Sockaddr plus the socket(2) domain/type to create, covering the
// subset of networks the core needs: tcp(4/6), udp(4/6) and unix.
func resolveSockaddr(network, address string) (domain, sotype int, sa unix.Sockaddr, err error) {
	switch network {
	case "unix":
		return unix.AF_UNIX, unix.SOCK_STREAM, &unix.SockaddrUnix{Name: address}, nil
	case "tcp", "tcp4", "tcp6":
		sotype = unix.SOCK_STREAM
	case "udp", "udp4", "udp6":
		sotype = unix.SOCK_DGRAM
	default:
		return 0, 0, nil, errInvalidNetwork
	}

	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return 0, 0, nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, 0, nil, err
	}

	ip := net.ParseIP(host)
	if host == "" {
		ip = net.IPv4zero
	}
	if ip4 := ip.To4(); ip4 != nil && network != "tcp6" && network != "udp6" {
		sa4 := &unix.SockaddrInet4{Port: port}
		copy(sa4.Addr[:], ip4)
		return unix.AF_INET, sotype, sa4, nil
	}
	ip6 := ip.To16()
	if ip6 == nil {
		return 0, 0, nil, errInvalidNetwork
	}
	sa6 := &unix.SockaddrInet6{Port: port}
	copy(sa6.Addr[:], ip6)
	return unix.AF_INET6, sotype, sa6, nil
}

func sockaddrToAddr(sa unix.Sockaddr) net.Addr {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(v.Addr[:]), Port: v.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(v.Addr[:]), Port: v.Port}
	case *unix.SockaddrUnix:
		return &net.UnixAddr{Name: v.Name, Net: "unix"}
	default:
		return nil
	}
}
