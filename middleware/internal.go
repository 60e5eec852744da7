package middleware

import (
	"net"
	"net/http"
	"strings"
)

// InternalOnly restricts access to requests originating from localhost and
// RFC1918 private networks. It is not part of the default stack; append it
// explicitly for services that must never be reachable from public addresses:
//
//	stack := middleware.DefaultStack(middleware.StackOptions{Logger: logger})
//	stack = append(stack, middleware.InternalOnly())
func InternalOnly() func(http.Handler) http.Handler {
	allowedNetworks := []*net.IPNet{
		parseCIDR("127.0.0.0/8"),
		parseCIDR("10.0.0.0/8"),
		parseCIDR("172.16.0.0/12"),
		parseCIDR("192.168.0.0/16"),
		parseCIDR("::1/128"),
		parseCIDR("fc00::/7"),
	}
	return AllowFromNetworks(allowedNetworks...)
}

// AllowFromNetworks restricts access to requests originating from the given
// CIDR networks. X-Forwarded-For and X-Real-IP are honored when present, so
// the originating client is checked rather than the immediate connection.
func AllowFromNetworks(networks ...*net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := extractClientIP(r)
			if clientIP == nil {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			allowed := false
			for _, network := range networks {
				if network.Contains(clientIP) {
					allowed = true
					break
				}
			}
			if !allowed {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractClientIP resolves the client address, preferring forwarding headers
// over RemoteAddr.
func extractClientIP(r *http.Request) net.IP {
	// X-Forwarded-For may carry a comma-separated chain; the leftmost entry
	// is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			if parsed := net.ParseIP(strings.TrimSpace(ips[0])); parsed != nil {
				return parsed
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if parsed := net.ParseIP(xri); parsed != nil {
			return parsed
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}

func parseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic("invalid CIDR: " + cidr)
	}
	return network
}
