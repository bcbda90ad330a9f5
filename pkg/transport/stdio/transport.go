// Package stdio implements the STDIO transport: an HTTP+SSE bridge in
// front of a container that speaks line-delimited JSON-RPC over its
// stdin/stdout.
//
// A Transport is constructed already owning its driver and container id —
// there is no later downcast-and-inject step to wire those up.
package stdio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/vibetool/vibetool/pkg/container"
	"github.com/vibetool/vibetool/pkg/jsonrpc"
)

const (
	mcpProtocolVersion = "2024-11-05"
	clientName         = "vibetool"
	clientVersion      = "0.1.0"
)

// Transport is the STDIO HTTP+SSE bridge.
type Transport struct {
	driver      container.Driver
	containerID string
	hostPort    int
	handshakeGap time.Duration
	queueSize   int
	log         *logrus.Entry

	registry *sessionRegistry
	toContainer chan *jsonrpc.Message

	mu       deadlock.Mutex
	server   *http.Server
	listener net.Listener
	running  bool
	cancel   context.CancelFunc

	stdin  io.WriteCloser
	stdout io.ReadCloser
}

// New builds a Transport explicitly bound to driver and containerID, so
// it never needs to recover that binding later through a type assertion.
func New(driver container.Driver, containerID string, hostPort int, handshakeGap time.Duration, queueSize int, log *logrus.Entry) *Transport {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Transport{
		driver:       driver,
		containerID:  containerID,
		hostPort:     hostPort,
		handshakeGap: handshakeGap,
		queueSize:    queueSize,
		log:          log,
		registry:     newSessionRegistry(),
		toContainer:  make(chan *jsonrpc.Message, queueSize),
	}
}

// EnvVars returns the environment a stdio-mode container must be launched
// with.
func EnvVars() map[string]string {
	return map[string]string{"MCP_TRANSPORT": "stdio"}
}

// Start attaches to the container, launches the Drain/Pump workers,
// synthesizes the MCP handshake, and binds the HTTP surface on hostPort.
func (t *Transport) Start(ctx context.Context) error {
	stdin, stdout, err := t.driver.Attach(ctx, t.containerID)
	if err != nil {
		return err
	}
	t.stdin = stdin
	t.stdout = stdout

	runCtx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	go t.drain(runCtx)
	go t.pump(runCtx)
	go t.sendHandshake(runCtx)

	router := mux.NewRouter()
	router.HandleFunc("/sse", t.handleSSE).Methods(http.MethodGet)
	router.HandleFunc("/messages", t.handleMessages).Methods(http.MethodPost)

	ln, err := net.Listen("tcp", net.JoinHostPort("0.0.0.0", strconv.Itoa(t.hostPort)))
	if err != nil {
		cancel()
		return err
	}

	t.mu.Lock()
	t.listener = ln
	t.server = &http.Server{Handler: router}
	t.running = true
	t.mu.Unlock()

	go func() {
		if err := t.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			t.log.WithError(err).Error("stdio transport listener exited")
		}
	}()
	return nil
}

// Stop cancels Drain/Pump, closes every SSE subscriber, and shuts the
// HTTP server down gracefully. Errors closing an already-gone container
// connection are tolerated rather than surfaced, since shutdown should
// proceed regardless.
func (t *Transport) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	cancel := t.cancel
	server := t.server
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.registry.closeAll()

	if t.stdin != nil {
		_ = t.stdin.Close() // tolerated as non-fatal
	}
	if t.stdout != nil {
		_ = t.stdout.Close()
	}

	shutdownCtx, done := context.WithTimeout(ctx, 5*time.Second)
	defer done()
	return server.Shutdown(shutdownCtx)
}

// IsRunning reports true from Start until the shutdown trigger fires.
func (t *Transport) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// drain repeatedly dequeues from toContainer and writes to the
// container's stdin, flushing after each message.
func (t *Transport) drain(ctx context.Context) {
	writer := jsonrpc.NewWriter(t.stdin)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-t.toContainer:
			if !ok {
				return
			}
			if err := writer.Write(msg); err != nil {
				t.log.WithError(err).Warn("stdin write failed")
			}
		}
	}
}

// pump reads the container's stdout through the framer and routes each
// message: responses go to the originating session, notifications and
// server-initiated requests broadcast to every subscriber.
func (t *Transport) pump(ctx context.Context) {
	reader := jsonrpc.NewReader(t.stdout, t.log)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := reader.Next()
		if err != nil {
			if err != io.EOF {
				t.log.WithError(err).Warn("stdout read failed")
			}
			return
		}

		data, err := encodeSSEEvent("message", msg)
		if err != nil {
			t.log.WithError(err).Warn("encoding outbound event failed")
			continue
		}

		switch {
		case msg.IsResponse():
			if !t.registry.routeResponse(msg.IDString(), data) {
				t.log.WithField("id", msg.IDString()).Debug("response for unknown or closed session, dropping")
			}
		default:
			// notifications, and server-initiated requests (sampling/roots)
			t.registry.broadcast(data)
		}
	}
}

// sendHandshake synthesizes the MCP initialize/initialized handshake on
// behalf of the managing process, since the actual client never connects
// directly to the container's stdin to perform it itself.
func (t *Transport) sendHandshake(ctx context.Context) {
	initParams, _ := json.Marshal(map[string]interface{}{
		"protocolVersion": mcpProtocolVersion,
		"clientInfo":      map[string]string{"name": clientName, "version": clientVersion},
		"capabilities": map[string]interface{}{
			"roots":    map[string]interface{}{"listChanged": true},
			"sampling": map[string]interface{}{},
		},
	})
	initReq := &jsonrpc.Message{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`"1"`),
		Method:  "initialize",
		Params:  initParams,
	}

	select {
	case t.toContainer <- initReq:
	case <-ctx.Done():
		return
	}

	select {
	case <-time.After(t.handshakeGap):
	case <-ctx.Done():
		return
	}

	initialized := &jsonrpc.Message{JSONRPC: "2.0", Method: "notifications/initialized"}
	select {
	case t.toContainer <- initialized:
	case <-ctx.Done():
	}
}

// handleSSE implements GET /sse: mints a session, emits the endpoint
// event, then streams subsequent events until the client disconnects.
func (t *Transport) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionID, sub := t.registry.open()
	defer t.registry.close(sessionID)

	endpoint := fmt.Sprintf("/messages?session_id=%s", sessionID)
	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", endpoint)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-sub.events:
			if !ok {
				return
			}
			w.Write(data)
			flusher.Flush()
		}
	}
}

// handleMessages implements POST /messages?session_id=<token>.
func (t *Transport) handleMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" || !t.registry.exists(sessionID) {
		http.Error(w, "unknown or missing session_id", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "error reading body", http.StatusInternalServerError)
		return
	}

	var msg jsonrpc.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		http.Error(w, "invalid JSON-RPC message: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := jsonrpc.Classify(&msg); err != nil {
		http.Error(w, "invalid JSON-RPC message: "+err.Error(), http.StatusBadRequest)
		return
	}

	if msg.IsRequest() {
		t.registry.recordPending(msg.IDString(), sessionID)
	}

	select {
	case t.toContainer <- &msg:
	case <-r.Context().Done():
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// encodeSSEEvent renders msg as a single "event: ...\ndata: ...\n\n" block.
func encodeSSEEvent(eventType string, msg *jsonrpc.Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, payload)), nil
}
