/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific pairing or system errors
internally within the server. On the WebSocket channel only the message text is sent.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that inbound payload validation failed.
	ErrInvalidParams = 1001

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Pairing Request Errors
const (
	// ErrRecipientOffline indicates that the targeted connection has no registered identity.
	ErrRecipientOffline = 2101

	// ErrSelfTarget indicates that a connection tried to pair with itself.
	ErrSelfTarget = 2102

	// ErrRoleNotAllowed indicates that the sender's role may not initiate pairing requests.
	ErrRoleNotAllowed = 2103

	// ErrDuplicateRequest indicates the same sender already has a pending request to the recipient.
	ErrDuplicateRequest = 2104

	// ErrRequestNotFound indicates no matching pending request exists for the recipient.
	ErrRequestNotFound = 2105

	// ErrSenderGone indicates that the sender of a pending request has disconnected.
	ErrSenderGone = 2106

	// ErrAlreadyInSession indicates one of the parties already owns an active session.
	ErrAlreadyInSession = 2107
)

// 3xxx: Session Errors
const (
	// ErrSessionNotFound indicates the session does not exist or has already ended.
	ErrSessionNotFound = 3001

	// ErrImageNotAllowed indicates the caller's side may not send images in this session.
	ErrImageNotAllowed = 3002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
