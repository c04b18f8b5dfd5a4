package handler

import (
	"context"
	"net/http"
	"time"

	"pairrelay/internal/app/pairing"
	"pairrelay/internal/pkg/errs"
	"pairrelay/internal/pkg/logx"
	"pairrelay/internal/pkg/resp"
)

const snapshotTimeout = 2 * time.Second

// AvailabilityResponse is the body of GET /api/availability.
type AvailabilityResponse struct {
	Users    []pairing.AvailableUser `json:"users"`
	Online   int                     `json:"online"`
	Sessions int                     `json:"sessions"`
}

// HandleAvailability returns the current availability list without opening a WebSocket.
func HandleAvailability(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
		defer cancel()

		stats, err := deps.Pairing.Snapshot(ctx)
		if err != nil {
			logx.Ctx(r.Context()).Error().Err(err).Msg("Failed to read pairing snapshot")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, AvailabilityResponse{
			Users:    stats.Available,
			Online:   stats.Identities,
			Sessions: stats.Sessions,
		})
	}
}
