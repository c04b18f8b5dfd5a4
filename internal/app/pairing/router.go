/*
Package pairing contains the matchmaking core: online identities, the availability directory,
pending pairing requests, active two-party sessions, and their readiness.

This file defines the Router, the single owner of all pairing state. Every mutation runs on
the Router's event loop goroutine, one event at a time, so the tables need no locks.
*/
package pairing

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"pairrelay/internal/app/portfolio"
	"pairrelay/internal/app/user"
	"pairrelay/internal/configs"
	"pairrelay/internal/pkg/errs"
	"pairrelay/internal/pkg/logx"
	"pairrelay/internal/pkg/randx"
)

const (
	PolicyRole   = configs.PolicyRole
	PolicyOpen   = configs.PolicyOpen
	MatchRequest = configs.MatchRequest
	MatchAuto    = configs.MatchAuto

	// eventQueueSize bounds how many events may wait for the loop before senders block.
	eventQueueSize = 256

	// MaxUsernameLength limits the announced display name, in runes.
	MaxUsernameLength = 64
)

// ErrRouterStopped is returned by calls made after Shutdown.
var ErrRouterStopped = errors.New("pairing router stopped")

// Peer is the transport handle of one connection as seen by the Router.
type Peer interface {
	// ID returns the connection identifier.
	ID() string

	// Send queues an encoded message without blocking. It returns false if the message was dropped.
	Send(msg []byte) bool

	// Close terminates the connection; the transport reports the disconnect afterwards.
	Close()
}

// Fetcher retrieves portfolio images. It must never fail: problems yield an empty list.
type Fetcher interface {
	Fetch(ctx context.Context, req portfolio.Request) []portfolio.Item
}

// Options selects the pairing variant.
type Options struct {
	// Policy is PolicyRole or PolicyOpen.
	Policy string

	// MatchMode is MatchRequest or MatchAuto.
	MatchMode string

	// SessionTimeout ends sessions after the given duration. Zero disables it.
	SessionTimeout time.Duration
}

// OptionsFromConfig extracts the pairing options from the application config.
func OptionsFromConfig(cfg *configs.AppConfig) Options {
	return Options{
		Policy:         cfg.AvailabilityPolicy,
		MatchMode:      cfg.MatchMode,
		SessionTimeout: cfg.SessionTimeout,
	}
}

type connectEvent struct{ peer Peer }

type disconnectEvent struct{ connID string }

type inboundEvent struct {
	connID string
	msg    Inbound
}

type timeoutEvent struct {
	sessionID string
	session   *Session
}

type fetchDoneEvent struct {
	connID    string
	requestID string
	items     []portfolio.Item
}

type snapshotEvent struct{ reply chan Stats }

// Stats is a point-in-time view of the Router's tables.
type Stats struct {
	Connections int             `json:"connections"`
	Identities  int             `json:"identities"`
	Pending     int             `json:"pendingRequests"`
	Sessions    int             `json:"sessions"`
	Available   []AvailableUser `json:"available"`
}

// Router dispatches inbound client events to the pairing tables and emits notifications.
type Router struct {
	opts Options

	// peers holds every live connection; emissions to ids missing here are dropped.
	peers map[string]Peer

	identities *identityRegistry
	directory  *availabilityDirectory
	requests   *requestTable
	sessions   *sessionTable

	// waiting is the FIFO of connections eligible for auto matching.
	waiting []string

	// validConnID checks connection ids named in inbound payloads.
	validConnID func(string) bool

	// fetching holds connections with a portfolio fetch in flight; one at a time per connection.
	fetching map[string]struct{}

	fetcher     Fetcher
	fetchCtx    context.Context
	fetchCancel context.CancelFunc
	fetchWG     sync.WaitGroup

	events   chan any
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger zerolog.Logger
}

// NewRouter constructs a Router. Call Run to start its event loop.
func NewRouter(opts Options, fetcher Fetcher) *Router {
	if opts.Policy == "" {
		opts.Policy = PolicyRole
	}
	if opts.MatchMode == "" {
		opts.MatchMode = MatchRequest
	}

	identities := newIdentityRegistry()
	fetchCtx, fetchCancel := context.WithCancel(context.Background())

	return &Router{
		opts:        opts,
		peers:       make(map[string]Peer),
		identities:  identities,
		directory:   newAvailabilityDirectory(opts.Policy, identities),
		requests:    newRequestTable(),
		sessions:    newSessionTable(),
		validConnID: randx.IsValidConnID,
		fetching:    make(map[string]struct{}),
		fetcher:     fetcher,
		fetchCtx:    fetchCtx,
		fetchCancel: fetchCancel,
		events:      make(chan any, eventQueueSize),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		logger: logx.Component("Router").With().
			Str("policy", opts.Policy).
			Str("match_mode", opts.MatchMode).
			Logger(),
	}
}

// Run is the event loop. It returns after Shutdown.
func (r *Router) Run() {
	defer close(r.done)

	r.logger.Info().Dur("session_timeout", r.opts.SessionTimeout).Msg("Router event loop started.")

	for {
		select {
		case ev := <-r.events:
			r.handle(ev)
		case <-r.stop:
			r.teardownAll()
			r.logger.Info().Msg("Router event loop stopped.")
			return
		}
	}
}

// Shutdown stops the loop, cancels outstanding portfolio fetches, and closes every connection.
func (r *Router) Shutdown() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	r.fetchCancel()
	<-r.done
	r.fetchWG.Wait()
}

// submit enqueues ev for the loop. Events from one goroutine keep their order.
func (r *Router) submit(ev any) error {
	select {
	case <-r.stop:
		return ErrRouterStopped
	default:
	}

	select {
	case r.events <- ev:
		return nil
	case <-r.stop:
		return ErrRouterStopped
	}
}

// Connect registers a new transport connection.
func (r *Router) Connect(peer Peer) error {
	return r.submit(connectEvent{peer: peer})
}

// Disconnect runs the full cleanup for connID.
func (r *Router) Disconnect(connID string) error {
	return r.submit(disconnectEvent{connID: connID})
}

// Deliver hands one decoded client message to the loop.
func (r *Router) Deliver(connID string, msg Inbound) error {
	return r.submit(inboundEvent{connID: connID, msg: msg})
}

// Snapshot returns the current table sizes and availability list.
func (r *Router) Snapshot(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if err := r.submit(snapshotEvent{reply: reply}); err != nil {
		return Stats{}, err
	}

	select {
	case stats := <-reply:
		return stats, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case <-r.done:
		return Stats{}, ErrRouterStopped
	}
}

// handle runs one event to completion.
func (r *Router) handle(ev any) {
	switch e := ev.(type) {
	case connectEvent:
		r.peers[e.peer.ID()] = e.peer
		r.logger.Debug().Str("conn_id", e.peer.ID()).Int("connections", len(r.peers)).Msg("Connection registered.")

	case disconnectEvent:
		r.handleDisconnect(e.connID)

	case inboundEvent:
		if _, ok := r.peers[e.connID]; !ok {
			r.logger.Warn().Str("conn_id", e.connID).Str("msg_type", string(e.msg.Type)).Msg("Dropping message from unknown connection.")
			return
		}
		if err := r.dispatch(e.connID, e.msg); err != nil {
			level := zerolog.InfoLevel
			if errs.Is(err, errs.ErrUnknown) {
				level = zerolog.ErrorLevel
			}
			r.logger.WithLevel(level).
				Str("conn_id", e.connID).
				Str("msg_type", string(e.msg.Type)).
				Str("error_kind", string(err.Kind)).
				Msg(err.Message)
			r.sendError(e.connID, err)
		}

	case timeoutEvent:
		r.handleTimeout(e)

	case fetchDoneEvent:
		delete(r.fetching, e.connID)
		r.emit(e.connID, TypePortfolioImages, PortfolioImagesPayload{RequestID: e.requestID, Items: e.items})

	case snapshotEvent:
		e.reply <- Stats{
			Connections: len(r.peers),
			Identities:  r.identities.len(),
			Pending:     r.requests.len(),
			Sessions:    r.sessions.len(),
			Available:   r.directory.list(),
		}

	default:
		r.logger.Error().Interface("event", ev).Msg("Unknown router event type.")
	}
}

// dispatch routes a client message to its handler.
func (r *Router) dispatch(connID string, msg Inbound) *errs.CustomError {
	switch msg.Type {
	case TypeJoin:
		var p JoinPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return r.handleJoin(connID, p.Username, p.Role)

	case TypeRequestPairing:
		var p RequestPairingPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		if !r.validConnID(p.RecipientConnID) {
			return errs.NewError(errs.ErrInvalidParams)
		}
		return r.handleRequestPairing(connID, p.RecipientConnID)

	case TypeAcceptPairing:
		var p RespondPairingPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		if !r.validConnID(p.SenderConnID) {
			return errs.NewError(errs.ErrInvalidParams)
		}
		return r.handleAccept(connID, p.SenderConnID)

	case TypeRejectPairing:
		var p RespondPairingPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		if !r.validConnID(p.SenderConnID) {
			return errs.NewError(errs.ErrInvalidParams)
		}
		return r.handleReject(connID, p.SenderConnID)

	case TypeRejoinSession:
		var p RejoinSessionPayload
		if err := decodeSessionRef(msg.Payload, &p, &p.SessionID); err != nil {
			return err
		}
		return r.handleRejoin(connID, p.SessionID, p.Username)

	case TypeSessionPageReady:
		var p SessionRefPayload
		if err := decodeSessionRef(msg.Payload, &p, &p.SessionID); err != nil {
			return err
		}
		r.handlePageReady(connID, p.SessionID)
		return nil

	case TypeLeaveSession:
		var p SessionRefPayload
		if err := decodeSessionRef(msg.Payload, &p, &p.SessionID); err != nil {
			return err
		}
		r.handleLeaveSession(connID, p.SessionID)
		return nil

	case TypeSendImage:
		var p SendImagePayload
		if err := decodeSessionRef(msg.Payload, &p, &p.SessionID); err != nil {
			return err
		}
		return r.handleSendImage(connID, p.SessionID, p.Payload)

	case TypeLeaveMainPage:
		r.handleLeaveMainPage(connID)
		return nil

	case TypeFetchPortfolio:
		var p FetchPortfolioPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		r.startFetch(connID, p)
		return nil

	default:
		return errs.NewError(errs.ErrInvalidParams)
	}
}

func decode(raw json.RawMessage, dst any) *errs.CustomError {
	if len(raw) == 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}
	return nil
}

// decodeSessionRef decodes raw into dst and rejects a sessionID that is not shaped like a session id.
func decodeSessionRef(raw json.RawMessage, dst any, sessionID *string) *errs.CustomError {
	if err := decode(raw, dst); err != nil {
		return err
	}
	if !randx.IsValidSessionID(*sessionID) {
		return errs.NewError(errs.ErrInvalidParams)
	}
	return nil
}

func (r *Router) handleJoin(connID, username string, role user.Role) *errs.CustomError {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > MaxUsernameLength || !role.Valid() {
		return errs.NewError(errs.ErrInvalidParams)
	}

	r.identities.register(connID, username, role)

	if _, inSession := r.sessions.of(connID); inSession {
		r.directory.exclude(connID)
	} else {
		r.directory.include(connID)
	}

	r.emit(connID, TypeReady, ReadyPayload{ConnID: connID})
	r.broadcastAvailability()

	r.logger.Info().Str("conn_id", connID).Str("username", username).Str("role", string(role)).Msg("User online.")

	if r.opts.MatchMode == MatchAuto {
		r.enqueueWaiting(connID)
		r.tryAutoMatch()
	}

	return nil
}

// handleRequestPairing records a request from senderID to recipientID. A sender that has not
// joined is rejected before anything about the recipient is looked at.
func (r *Router) handleRequestPairing(senderID, recipientID string) *errs.CustomError {
	sender, senderKnown := r.identities.lookup(senderID)
	if !senderKnown {
		return errs.NewError(errs.ErrInvalidParams)
	}

	recipient, ok := r.identities.lookup(recipientID)
	if !ok {
		return errs.NewError(errs.ErrRecipientOffline)
	}

	if recipientID == senderID {
		return errs.NewError(errs.ErrSelfTarget)
	}

	if r.opts.Policy == PolicyRole && sender.Role != user.RoleArtist {
		return errs.NewError(errs.ErrRoleNotAllowed)
	}

	if existing, ok := r.requests.get(recipientID); ok && existing.SenderConnID == senderID {
		return errs.NewError(errs.ErrDuplicateRequest)
	}

	if r.busy(senderID) || r.busy(recipientID) {
		return errs.NewError(errs.ErrAlreadyInSession)
	}

	req := PendingRequest{
		RecipientConnID: recipientID,
		SenderConnID:    senderID,
		SenderUsername:  sender.Username,
		SenderRole:      sender.Role,
	}

	if displaced, replaced := r.requests.put(req); replaced {
		r.emit(displaced.SenderConnID, TypeRequestSuperseded, RequestSupersededPayload{RecipientConnID: recipientID})
		r.logger.Info().
			Str("recipient_conn_id", recipientID).
			Str("displaced_sender_conn_id", displaced.SenderConnID).
			Msg("Pending request superseded by another sender.")
	}

	r.emit(recipientID, TypePairingRequested, PairingRequestedPayload{
		SenderConnID:   senderID,
		SenderUsername: sender.Username,
		SenderRole:     sender.Role,
	})

	r.logger.Info().
		Str("sender", sender.Username).
		Str("recipient", recipient.Username).
		Msg("Pairing request sent.")

	return nil
}

func (r *Router) handleAccept(recipientID, claimedSenderID string) *errs.CustomError {
	req, ok := r.requests.match(recipientID, claimedSenderID)
	if !ok {
		return errs.NewError(errs.ErrRequestNotFound)
	}

	if _, online := r.identities.lookup(req.SenderConnID); !online {
		r.requests.removeFor(recipientID)
		return errs.NewError(errs.ErrSenderGone)
	}

	if r.busy(req.SenderConnID) || r.busy(recipientID) {
		r.requests.removeFor(recipientID)
		return errs.NewError(errs.ErrAlreadyInSession)
	}

	r.requests.removeFor(recipientID)

	if _, err := r.openSession(req.SenderConnID, recipientID); err != nil {
		return err
	}

	return nil
}

func (r *Router) handleReject(recipientID, claimedSenderID string) *errs.CustomError {
	req, ok := r.requests.match(recipientID, claimedSenderID)
	if !ok {
		return errs.NewError(errs.ErrRequestNotFound)
	}

	r.requests.removeFor(recipientID)

	rejecter, _ := r.identities.lookup(recipientID)
	if _, online := r.identities.lookup(req.SenderConnID); online {
		r.emit(req.SenderConnID, TypePairingRejected, PairingRejectedPayload{RejecterUsername: rejecter.Username})
	}

	r.logger.Info().
		Str("recipient", rejecter.Username).
		Str("sender", req.SenderUsername).
		Msg("Pairing request rejected.")

	return nil
}

// openSession creates a session between a (side A) and b (side B) and notifies both.
func (r *Router) openSession(a, b string) (*Session, *errs.CustomError) {
	idA, _ := r.identities.lookup(a)
	idB, _ := r.identities.lookup(b)

	s, err := r.sessions.create(a, b, idA.Username, idB.Username)
	if err != nil {
		r.logger.Error().Err(err).Str("side_a", a).Str("side_b", b).Msg("Failed to create session.")
		return nil, errs.NewError(errs.ErrUnknown)
	}

	if r.opts.SessionTimeout > 0 {
		s.timer = time.AfterFunc(r.opts.SessionTimeout, func() {
			_ = r.submit(timeoutEvent{sessionID: s.ID, session: s})
		})
	}

	r.removeWaiting(a)
	r.removeWaiting(b)

	for _, connID := range s.Conns {
		r.withdrawRequestsOf(connID)
		r.directory.exclude(connID)
	}

	r.emit(a, TypeMatched, SessionRefPayload{SessionID: s.ID})
	r.emit(b, TypeMatched, SessionRefPayload{SessionID: s.ID})
	r.broadcastAvailability()

	r.logger.Info().
		Str("session_id", s.ID).
		Str("side_a", idA.Username).
		Str("side_b", idB.Username).
		Msg("Matched.")

	return s, nil
}

// withdrawRequestsOf clears every pending request involving connID, telling the other party.
func (r *Router) withdrawRequestsOf(connID string) {
	if inbound, ok := r.requests.removeFor(connID); ok {
		r.emit(inbound.SenderConnID, TypeRequestSuperseded, RequestSupersededPayload{RecipientConnID: connID})
	}
	for _, outbound := range r.requests.removeBySender(connID) {
		r.emit(outbound.RecipientConnID, TypeRequestCancelled, RequestCancelledPayload{SenderConnID: connID})
	}
}

// handleRejoin refreshes a member's display name and confirms the session is still live.
// Only the two connections recorded in the session may rejoin: holding the session id is not
// enough, because emissions go to the recorded connections and a third one would receive nothing.
// Anyone else gets the same answer as for an ended session.
func (r *Router) handleRejoin(connID, sessionID, username string) *errs.CustomError {
	s, ok := r.sessions.get(sessionID)
	if !ok {
		return errs.NewError(errs.ErrSessionNotFound)
	}

	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > MaxUsernameLength {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if !r.sessions.rename(s, connID, username) {
		r.logger.Warn().Str("conn_id", connID).Str("session_id", sessionID).Msg("Rejoin attempted by non-member.")
		return errs.NewError(errs.ErrSessionNotFound)
	}
	r.identities.rename(connID, username)

	r.emit(connID, TypeRejoined, SessionRefPayload{SessionID: sessionID})
	r.logger.Info().Str("session_id", sessionID).Str("username", username).Msg("Rejoined session.")

	return nil
}

func (r *Router) handlePageReady(connID, sessionID string) {
	if !r.sessions.markReady(sessionID, connID) {
		return
	}

	s, _ := r.sessions.get(sessionID)
	start := SessionStartPayload{
		SessionID: s.ID,
		SideAName: s.Names[SideA],
		SideBName: s.Names[SideB],
	}
	r.emit(s.Conns[SideA], TypeSessionStart, start)
	r.emit(s.Conns[SideB], TypeSessionStart, start)

	r.logger.Info().Str("session_id", sessionID).Msg("Both sides ready, session started.")
}

func (r *Router) handleLeaveSession(connID, sessionID string) {
	s, ok := r.sessions.get(sessionID)
	if !ok {
		return
	}

	side, member := s.sideOf(connID)
	if !member {
		r.logger.Warn().Str("conn_id", connID).Str("session_id", sessionID).Msg("Leave attempted by non-member.")
		return
	}

	r.sessions.remove(sessionID)
	r.emit(s.Conns[side.Other()], TypePartnerLeft, SessionRefPayload{SessionID: sessionID})

	r.logger.Info().Str("session_id", sessionID).Str("conn_id", connID).Msg("Session ended (user left).")
}

func (r *Router) handleSendImage(connID, sessionID string, payload json.RawMessage) *errs.CustomError {
	s, ok := r.sessions.get(sessionID)
	if !ok {
		return errs.NewError(errs.ErrSessionNotFound)
	}

	side, member := s.sideOf(connID)
	if !member || (r.opts.Policy == PolicyRole && side != SideA) {
		return errs.NewError(errs.ErrImageNotAllowed)
	}

	if len(payload) == 0 || string(payload) == "null" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	r.emit(s.Conns[side.Other()], TypeReceiveImage, ReceiveImagePayload{Payload: payload})
	r.logger.Debug().Str("session_id", sessionID).Int("bytes", len(payload)).Msg("Image relayed.")

	return nil
}

func (r *Router) handleLeaveMainPage(connID string) {
	r.removeWaiting(connID)
	r.directory.exclude(connID)
	r.broadcastAvailability()

	r.logger.Debug().Str("conn_id", connID).Msg("User left main page.")
}

// handleDisconnect removes connID from every table. Each step is independent of the others.
func (r *Router) handleDisconnect(connID string) {
	delete(r.peers, connID)

	r.identities.remove(connID)
	r.directory.exclude(connID)
	r.removeWaiting(connID)

	r.requests.removeFor(connID)
	for _, outbound := range r.requests.removeBySender(connID) {
		r.emit(outbound.RecipientConnID, TypeRequestCancelled, RequestCancelledPayload{SenderConnID: connID})
	}

	if s, ok := r.sessions.of(connID); ok {
		r.endSession(s, EndReasonDisconnect)
	}

	r.broadcastAvailability()

	r.logger.Info().Str("conn_id", connID).Int("connections", len(r.peers)).Msg("Connection cleaned up.")
}

func (r *Router) handleTimeout(e timeoutEvent) {
	current, ok := r.sessions.get(e.sessionID)
	if !ok || current != e.session {
		return
	}
	r.endSession(current, EndReasonTimeout)
}

// endSession tears the session down and tells both sides it ended.
func (r *Router) endSession(s *Session, reason string) {
	r.sessions.remove(s.ID)

	ended := SessionEndedPayload{SessionID: s.ID, Reason: reason}
	r.emit(s.Conns[SideA], TypeSessionEnded, ended)
	r.emit(s.Conns[SideB], TypeSessionEnded, ended)

	r.logger.Info().
		Str("session_id", s.ID).
		Str("reason", reason).
		Dur("duration", time.Since(s.CreatedAt)).
		Msg("Session ended.")
}

// startFetch runs the portfolio fetch off the loop; the result comes back as a fetchDoneEvent.
// A connection with a fetch in flight gets an empty result for any further request.
func (r *Router) startFetch(connID string, p FetchPortfolioPayload) {
	if r.fetcher == nil {
		r.emit(connID, TypePortfolioImages, PortfolioImagesPayload{RequestID: p.RequestID, Items: []portfolio.Item{}})
		return
	}

	if _, inFlight := r.fetching[connID]; inFlight {
		r.logger.Info().Str("conn_id", connID).Str("request_id", p.RequestID).Msg("Portfolio fetch already in flight, returning empty result.")
		r.emit(connID, TypePortfolioImages, PortfolioImagesPayload{RequestID: p.RequestID, Items: []portfolio.Item{}})
		return
	}
	r.fetching[connID] = struct{}{}

	r.fetchWG.Add(1)
	go func() {
		defer r.fetchWG.Done()

		items := r.fetcher.Fetch(r.fetchCtx, p.Request)
		if items == nil {
			items = []portfolio.Item{}
		}

		_ = r.submit(fetchDoneEvent{connID: connID, requestID: p.RequestID, items: items})
	}()
}

func (r *Router) busy(connID string) bool {
	_, ok := r.sessions.of(connID)
	return ok
}

func (r *Router) enqueueWaiting(connID string) {
	if r.busy(connID) {
		return
	}
	for _, id := range r.waiting {
		if id == connID {
			return
		}
	}
	r.waiting = append(r.waiting, connID)
}

func (r *Router) removeWaiting(connID string) {
	for i, id := range r.waiting {
		if id == connID {
			r.waiting = append(r.waiting[:i], r.waiting[i+1:]...)
			return
		}
	}
}

// tryAutoMatch pairs waiting connections in arrival order until no compatible pair remains.
func (r *Router) tryAutoMatch() {
	for {
		a, b, ok := r.nextAutoPair()
		if !ok {
			return
		}
		if _, err := r.openSession(a, b); err != nil {
			r.removeWaiting(a)
			r.removeWaiting(b)
		}
	}
}

// nextAutoPair picks the first compatible pair. Under the role policy side A is the artist.
func (r *Router) nextAutoPair() (string, string, bool) {
	if r.opts.Policy != PolicyRole {
		if len(r.waiting) < 2 {
			return "", "", false
		}
		return r.waiting[0], r.waiting[1], true
	}

	artist, viewer := "", ""
	for _, connID := range r.waiting {
		id, ok := r.identities.lookup(connID)
		if !ok {
			continue
		}
		switch {
		case id.Role == user.RoleArtist && artist == "":
			artist = connID
		case id.Role == user.RoleViewer && viewer == "":
			viewer = connID
		}
	}

	if artist == "" || viewer == "" {
		return "", "", false
	}
	return artist, viewer, true
}

func (r *Router) broadcastAvailability() {
	msg, err := NewMessage(TypeAvailabilityList, AvailabilityListPayload{Users: r.directory.list()})
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to build availability list.")
		return
	}

	for connID := range r.peers {
		r.deliver(connID, msg)
	}
}

// emit sends one message to connID if it is still connected.
func (r *Router) emit(connID string, msgType MessageType, payload any) {
	if _, ok := r.peers[connID]; !ok {
		return
	}

	msg, err := NewMessage(msgType, payload)
	if err != nil {
		r.logger.Error().Err(err).Str("msg_type", string(msgType)).Msg("Failed to build message.")
		return
	}

	r.deliver(connID, msg)
}

func (r *Router) sendError(connID string, err *errs.CustomError) {
	r.emit(connID, TypeError, ErrorPayload{Message: err.Message})
}

// deliver hands bytes to the peer; a peer whose queue is full is closed and cleaned up on disconnect.
func (r *Router) deliver(connID string, msg []byte) {
	peer, ok := r.peers[connID]
	if !ok {
		return
	}

	if !peer.Send(msg) {
		r.logger.Warn().Str("conn_id", connID).Msg("Peer send queue full or closed, closing connection.")
		peer.Close()
	}
}

// teardownAll runs on shutdown: cancels every countdown and closes every connection.
func (r *Router) teardownAll() {
	for _, s := range r.sessions.all() {
		r.sessions.remove(s.ID)
	}
	for _, peer := range r.peers {
		peer.Close()
	}
}
