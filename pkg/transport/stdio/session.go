package stdio

import (
	"github.com/google/uuid"
	deadlock "github.com/sasha-s/go-deadlock"
)

// subscriber is one live SSE connection: a channel the http handler drains
// into the response, and a per-subscriber counter. Nothing increments the
// counter, and events are written without an "id:" field.
type subscriber struct {
	events  chan []byte
	counter int
}

// sessionRegistry tracks live SSE subscribers (session_id -> subscriber)
// and the in-flight request routing table (request_id -> session_id).
// Both maps share one lock since they are always mutated together at
// session boundaries and read together at routing time.
type sessionRegistry struct {
	mu      deadlock.RWMutex
	subs    map[string]*subscriber
	pending map[string]string // request id -> session id
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{
		subs:    map[string]*subscriber{},
		pending: map[string]string{},
	}
}

// open mints a new session and registers its subscriber, returning the
// session id.
func (r *sessionRegistry) open() (string, *subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.NewString()
	sub := &subscriber{events: make(chan []byte, 64)}
	r.subs[id] = sub
	return id, sub
}

// close removes a session and closes its subscriber channel.
func (r *sessionRegistry) close(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub, ok := r.subs[sessionID]; ok {
		close(sub.events)
		delete(r.subs, sessionID)
	}
	for reqID, sid := range r.pending {
		if sid == sessionID {
			delete(r.pending, reqID)
		}
	}
}

// recordPending records that requestID originated from sessionID.
func (r *sessionRegistry) recordPending(requestID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[requestID] = sessionID
}

// routeResponse looks up and removes the session that should receive a
// response to requestID, delivering eventData to it if found. The send
// happens under the same lock that close() takes to close the
// subscriber's channel, so a concurrent session close can never race a
// delivery into that channel.
func (r *sessionRegistry) routeResponse(requestID string, eventData []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID, ok := r.pending[requestID]
	if !ok {
		return false
	}
	delete(r.pending, requestID)

	sub, subOK := r.subs[sessionID]
	if !subOK {
		return false
	}

	select {
	case sub.events <- eventData:
	default:
		// subscriber's buffer is full; drop rather than block the Pump.
	}
	return true
}

// broadcast delivers eventData to every currently-live subscriber
// (notifications and server-initiated requests).
func (r *sessionRegistry) broadcast(eventData []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sub := range r.subs {
		select {
		case sub.events <- eventData:
		default:
			// subscriber's buffer is full; drop rather than block the Pump.
		}
	}
}

// exists reports whether sessionID is currently registered.
func (r *sessionRegistry) exists(sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subs[sessionID]
	return ok
}

// closeAll closes every live subscriber, for shutdown.
func (r *sessionRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sub := range r.subs {
		close(sub.events)
		delete(r.subs, id)
	}
	r.pending = map[string]string{}
}
