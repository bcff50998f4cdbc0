// Package netx holds small networking helpers.
package netx

import (
	"net"
	"net/url"
	"time"
)

// Online reports whether a TCP connection to addr ("host:port") can be
// established within timeout. The sync engine uses it to tell offline
// failures apart from real errors; it is a reachability hint, not a health
// check of the remote service.
func Online(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// DialAddr derives a dialable "host:port" from an endpoint URL, filling in
// the scheme's default port when the URL carries none.
func DialAddr(u *url.URL) string {
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}
