/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
WebSocket error events and HTTP responses.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The messages of the 2xxx and 3xxx families are part of the client contract; change them with care.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Kind: KindInvalid, Message: "Invalid request parameters."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Kind: KindInvalid, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Pairing Request Errors
	ErrRecipientOffline: {Code: ErrRecipientOffline, Kind: KindNotFound, Message: "User not found or offline"},
	ErrSelfTarget:       {Code: ErrSelfTarget, Kind: KindConflict, Message: "Cannot connect with yourself"},
	ErrRoleNotAllowed:   {Code: ErrRoleNotAllowed, Kind: KindUnauthorized, Message: "Only artists can send connection requests"},
	ErrDuplicateRequest: {Code: ErrDuplicateRequest, Kind: KindConflict, Message: "Request already sent"},
	ErrRequestNotFound:  {Code: ErrRequestNotFound, Kind: KindNotFound, Message: "Request not found"},
	ErrSenderGone:       {Code: ErrSenderGone, Kind: KindPeerGone, Message: "Artist disconnected"},
	ErrAlreadyInSession: {Code: ErrAlreadyInSession, Kind: KindConflict, Message: "User is already in a session"},

	// 3xxx: Session Errors
	ErrSessionNotFound: {Code: ErrSessionNotFound, Kind: KindNotFound, Message: "Session not found or already ended", Status: http.StatusNotFound},
	ErrImageNotAllowed: {Code: ErrImageNotAllowed, Kind: KindUnauthorized, Message: "Only artists can send images"},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Kind: KindInternal, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
