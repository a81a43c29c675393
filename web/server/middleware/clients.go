package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"

	"go4.org/netipx"

	"go.hackfix.me/sieve/web/server/handler"
)

// ClientIPKey is the handler.Context data key of the client IP address.
const ClientIPKey = "client_ip"

// AllowClients returns a route middleware that rejects requests from remote
// addresses outside of allowed with 403 Forbidden. The client address is
// contributed under ClientIPKey.
func AllowClients(allowed *netipx.IPSet) handler.Middleware {
	return handler.Provide(ClientIPKey, func(r *http.Request, _ *handler.Context) (netip.Addr, error) {
		addr, err := remoteAddr(r)
		if err != nil {
			return netip.Addr{}, handler.WrapError(http.StatusBadRequest, "Invalid remote address", err)
		}

		if allowed == nil || !allowed.Contains(addr) {
			return netip.Addr{}, handler.NewError(http.StatusForbidden,
				fmt.Sprintf("Client %s is not allowed", addr))
		}

		return addr, nil
	})
}

func remoteAddr(r *http.Request) (netip.Addr, error) {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed parsing remote address '%s': %w", r.RemoteAddr, err)
	}

	return addr.Unmap(), nil
}

// ParseToIPSet parses one or more IP address strings in plain, CIDR or range
// notation, and returns an IP set containing IP ranges.
func ParseToIPSet(ipAddr ...string) (*netipx.IPSet, error) {
	var b netipx.IPSetBuilder
	for _, ip := range ipAddr {
		if addr, err := netip.ParseAddr(ip); err == nil {
			b.Add(addr.Unmap())
			continue
		}
		if cidr, err := netip.ParsePrefix(ip); err == nil {
			b.AddPrefix(cidr.Masked())
			continue
		}
		ipRange, err := netipx.ParseIPRange(ip)
		if err != nil {
			return nil, fmt.Errorf("failed parsing IP address '%s': %w", ip, err)
		}
		b.AddRange(ipRange)
	}

	ipSet, err := b.IPSet()
	if err != nil {
		return nil, fmt.Errorf("failed building IP set: %w", err)
	}

	return ipSet, nil
}
