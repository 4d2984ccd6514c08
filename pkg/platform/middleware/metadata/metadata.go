package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"tallysync/pkg/requestcontext"
)

// Device classes recorded for submissions. Field witnesses submit from phones;
// anything else on the ingest path is worth noticing in logs and metrics.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

// ClientMetadata extracts client IP address, User-Agent and device class from
// the request and adds them to the context.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, DeviceClass(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceClass maps a User-Agent header to a coarse device class.
func DeviceClass(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return DeviceUnknown
	}
	ua := useragent.New(rawUA)
	switch {
	case ua.Bot():
		return DeviceBot
	case ua.Mobile():
		return DeviceMobile
	case ua.OS() != "":
		return DeviceDesktop
	default:
		return DeviceUnknown
	}
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port"; IPv6 is "[::1]:port"
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}
