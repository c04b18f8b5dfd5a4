/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains HandleWebSocket, which rate limits by client IP, upgrades the HTTP connection
to WebSocket, and starts the client's read and write loops. Identity is announced later with a
join message, so the upgrade itself carries no parameters.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"pairrelay/internal/app/pairing"
	"pairrelay/internal/pkg/errs"
	"pairrelay/internal/pkg/limiter"
	"pairrelay/internal/pkg/logx"
	"pairrelay/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if deps.ConnectLimiter != nil && !deps.ConnectLimiter.Allow(ip) {
			logx.Ctx(r.Context()).Warn().Msg("WebSocket connection rejected: Rate limit exceeded.")
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Ctx(r.Context()).Error().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}

		client := pairing.NewClient(deps.Pairing, conn)

		go client.WritePump()

		logx.Ctx(r.Context()).Info().Str("conn_id", client.ID()).Msg("WebSocket connection established")

		client.ReadPump()
	}
}
