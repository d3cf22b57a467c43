package middleware

import (
	"net"
	"net/http"
)

// ClientIP returns the caller address without its port. Behind the router's
// RealIP middleware RemoteAddr already holds the forwarded client address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
