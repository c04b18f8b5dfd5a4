package logx

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Client addresses are truncated to these prefixes before they reach a log line.
const (
	ipv4KeepBits = 24
	ipv6KeepBits = 48
)

// AnonymizeIP truncates an address (optionally with a port) to its network prefix:
// a /24 for IPv4 and a /48 for IPv6. Loopback addresses are kept as they are.
func AnonymizeIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	ip := net.ParseIP(addr)
	if ip == nil {
		return "unknown_ip"
	}
	if ip.IsLoopback() {
		return ip.String()
	}

	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(ipv4KeepBits, 32)).String()
	}
	return ip.Mask(net.CIDRMask(ipv6KeepBits, 128)).String()
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// RequestLogger returns middleware that puts a request-scoped logger in the context (see Ctx)
// and writes one line when the request finishes. For a WebSocket upgrade the handler returns
// only when the socket closes, so that line reports how long the connection lasted.
// Health checks are logged at debug level.
func RequestLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := Logger().With().
				Str("component", "http").
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_ip", AnonymizeIP(r.RemoteAddr)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context())))

			elapsed := time.Since(started)
			status := ww.Status()

			if isWebSocketUpgrade(r) && status == 0 {
				// hijacked: the upgrade response never went through ww
				logger.Info().Dur("connected_for", elapsed).Msg("WebSocket connection closed")
				return
			}

			level := zerolog.InfoLevel
			switch {
			case status >= http.StatusInternalServerError:
				level = zerolog.ErrorLevel
			case status >= http.StatusBadRequest:
				level = zerolog.WarnLevel
			case r.URL.Path == "/health":
				level = zerolog.DebugLevel
			}

			logger.WithLevel(level).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", elapsed).
				Msg("Request completed")
		})
	}
}
