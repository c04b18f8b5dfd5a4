package pairing

import (
	"encoding/json"

	"pairrelay/internal/app/portfolio"
	"pairrelay/internal/app/user"
)

// MessageType names an event on the WebSocket channel.
type MessageType string

// Inbound (client -> server) message types.
const (
	TypeJoin             MessageType = "join"
	TypeRequestPairing   MessageType = "requestPairing"
	TypeAcceptPairing    MessageType = "acceptPairing"
	TypeRejectPairing    MessageType = "rejectPairing"
	TypeRejoinSession    MessageType = "rejoinSession"
	TypeSessionPageReady MessageType = "sessionPageReady"
	TypeLeaveSession     MessageType = "leaveSession"
	TypeSendImage        MessageType = "sendImage"
	TypeLeaveMainPage    MessageType = "leaveMainPage"
	TypeFetchPortfolio   MessageType = "fetchPortfolio"
)

// Outbound (server -> client) message types.
const (
	TypeReady             MessageType = "ready"
	TypeAvailabilityList  MessageType = "availabilityList"
	TypePairingRequested  MessageType = "pairingRequested"
	TypeMatched           MessageType = "matched"
	TypePairingRejected   MessageType = "pairingRejected"
	TypeRejoined          MessageType = "rejoined"
	TypeSessionStart      MessageType = "sessionStart"
	TypePartnerLeft       MessageType = "partnerLeft"
	TypeSessionEnded      MessageType = "sessionEnded"
	TypeReceiveImage      MessageType = "receiveImage"
	TypeRequestCancelled  MessageType = "requestCancelled"
	TypeRequestSuperseded MessageType = "requestSuperseded"
	TypePortfolioImages   MessageType = "portfolioImages"
	TypeError             MessageType = "error"
)

// Reasons carried by sessionEnded.
const (
	EndReasonDisconnect = "disconnect"
	EndReasonTimeout    = "timeout"
)

// Inbound is the envelope of every client message. Payload is decoded by the handler for its type.
type Inbound struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message is the envelope of every server message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

// NewMessage encodes an outbound message.
func NewMessage(msgType MessageType, payload any) ([]byte, error) {
	if payload == nil {
		payload = struct{}{}
	}
	return json.Marshal(Message{Type: msgType, Payload: payload})
}

type JoinPayload struct {
	Username string    `json:"username"`
	Role     user.Role `json:"role,omitempty"`
}

type RequestPairingPayload struct {
	RecipientConnID string `json:"recipientConnId"`
}

// RespondPairingPayload is shared by acceptPairing and rejectPairing.
type RespondPairingPayload struct {
	SenderConnID string `json:"senderConnId"`
}

type RejoinSessionPayload struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
}

// SessionRefPayload is shared by every message that only names a session.
type SessionRefPayload struct {
	SessionID string `json:"sessionId"`
}

type SendImagePayload struct {
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}

type FetchPortfolioPayload struct {
	RequestID string `json:"requestId,omitempty"`
	portfolio.Request
}

type ReadyPayload struct {
	ConnID string `json:"connId"`
}

// AvailableUser is one entry of the availability list.
type AvailableUser struct {
	ConnID   string `json:"connId"`
	Username string `json:"username"`
}

type AvailabilityListPayload struct {
	Users []AvailableUser `json:"users"`
}

type PairingRequestedPayload struct {
	SenderConnID   string    `json:"senderConnId"`
	SenderUsername string    `json:"senderUsername"`
	SenderRole     user.Role `json:"senderRole,omitempty"`
}

type PairingRejectedPayload struct {
	RejecterUsername string `json:"rejecterUsername"`
}

type SessionStartPayload struct {
	SessionID string `json:"sessionId"`
	SideAName string `json:"sideAName"`
	SideBName string `json:"sideBName"`
}

type SessionEndedPayload struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}

type ReceiveImagePayload struct {
	Payload json.RawMessage `json:"payload"`
}

type RequestCancelledPayload struct {
	SenderConnID string `json:"senderConnId"`
}

type RequestSupersededPayload struct {
	RecipientConnID string `json:"recipientConnId"`
}

type PortfolioImagesPayload struct {
	RequestID string           `json:"requestId,omitempty"`
	Items     []portfolio.Item `json:"items"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
