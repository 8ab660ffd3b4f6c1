package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies configures Echo to believe forwarding headers (X-Real-IP,
// X-Forwarded-For) only when the direct peer lies in one of trustedCIDRs.
// The per-IP login limiter depends on c.RealIP() naming the actual client.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	e.IPExtractor = buildIPExtractor(parseCIDRs(trustedCIDRs))
}

func parseCIDRs(cidrs []string) []*net.IPNet {
	var out []*net.IPNet
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR", slog.String("cidr", cidr))
			continue
		}
		out = append(out, network)
	}
	return out
}

func buildIPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	return func(req *http.Request) string {
		direct := peerHost(req)
		if !containsIP(trusted, direct) {
			return direct
		}

		if realIP := strings.TrimSpace(req.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}

		// Leftmost X-Forwarded-For entry is the original client.
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}

		return direct
	}
}

// peerHost is the address of the direct peer, without the port.
func peerHost(req *http.Request) string {
	if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		return host
	}
	return req.RemoteAddr
}

// isHTTPS reports whether the client reached us over HTTPS: TLS terminated
// here, or X-Forwarded-Proto set by a trusted proxy. Echo's c.Scheme()
// believes the header from any peer.
func isHTTPS(req *http.Request, trusted []*net.IPNet) bool {
	if req.TLS != nil {
		return true
	}
	return containsIP(trusted, peerHost(req)) &&
		strings.EqualFold(req.Header.Get(echo.HeaderXForwardedProto), "https")
}

func containsIP(networks []*net.IPNet, raw string) bool {
	ip := net.ParseIP(raw)
	if ip == nil {
		return false
	}
	for _, n := range networks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
