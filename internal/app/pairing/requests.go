package pairing

import "pairrelay/internal/app/user"

// PendingRequest is a pairing proposal waiting for its recipient to act.
type PendingRequest struct {
	RecipientConnID string
	SenderConnID    string
	SenderUsername  string
	SenderRole      user.Role
}

// requestTable holds at most one pending request per recipient.
type requestTable struct {
	byRecipient map[string]PendingRequest
}

func newRequestTable() *requestTable {
	return &requestTable{byRecipient: make(map[string]PendingRequest)}
}

// put stores req and returns the request it replaced, if any.
func (t *requestTable) put(req PendingRequest) (PendingRequest, bool) {
	prev, existed := t.byRecipient[req.RecipientConnID]
	t.byRecipient[req.RecipientConnID] = req
	return prev, existed
}

func (t *requestTable) get(recipientConnID string) (PendingRequest, bool) {
	req, ok := t.byRecipient[recipientConnID]
	return req, ok
}

// match returns the pending request for recipientConnID only if it was sent by senderConnID.
func (t *requestTable) match(recipientConnID, senderConnID string) (PendingRequest, bool) {
	req, ok := t.byRecipient[recipientConnID]
	if !ok || req.SenderConnID != senderConnID {
		return PendingRequest{}, false
	}
	return req, true
}

// removeFor drops the request addressed to recipientConnID.
func (t *requestTable) removeFor(recipientConnID string) (PendingRequest, bool) {
	req, ok := t.byRecipient[recipientConnID]
	if ok {
		delete(t.byRecipient, recipientConnID)
	}
	return req, ok
}

// removeBySender drops every request sent by senderConnID and returns them.
func (t *requestTable) removeBySender(senderConnID string) []PendingRequest {
	var removed []PendingRequest
	for recipient, req := range t.byRecipient {
		if req.SenderConnID == senderConnID {
			removed = append(removed, req)
			delete(t.byRecipient, recipient)
		}
	}
	return removed
}

func (t *requestTable) len() int {
	return len(t.byRecipient)
}
