// Package sse implements the SSE transport: a single-process HTTP
// reverse proxy that forwards every request into the container's exposed
// port.
package sse

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// Transport is the SSE reverse proxy. It is constructed already knowing
// its upstream target (container IP/port), so there is never a later
// downcast or injection step to wire up the proxy destination.
type Transport struct {
	hostPort      int
	containerAddr string // host:port of the container's exposed port
	log           *logrus.Entry

	mu       deadlock.Mutex
	server   *http.Server
	listener net.Listener
	running  bool
}

// New builds a Transport that will listen on hostPort and forward to
// containerIP:containerPort (or "localhost:containerPort" if containerIP
// is empty).
func New(hostPort int, containerIP string, containerPort int, log *logrus.Entry) *Transport {
	host := containerIP
	if host == "" {
		host = "localhost"
	}
	return &Transport{
		hostPort:      hostPort,
		containerAddr: net.JoinHostPort(host, strconv.Itoa(containerPort)),
		log:           log,
	}
}

// EnvVars returns the environment the container must be launched with so
// its MCP server listens over SSE on containerPort.
func EnvVars(containerPort int) map[string]string {
	port := strconv.Itoa(containerPort)
	return map[string]string{
		"MCP_TRANSPORT":   "sse",
		"MCP_PORT":        port,
		"PORT":            port,
		"MCP_SSE_ENABLED": "true",
	}
}

// Start binds 0.0.0.0:hostPort and begins proxying. It returns once the
// listener is bound; serving happens in a background goroutine.
func (t *Transport) Start(ctx context.Context) error {
	target := &url.URL{Scheme: "http", Host: t.containerAddr}
	proxy := httputil.NewSingleHostReverseProxy(target)

	originalDirector := proxy.Director
	proxy.Director = func(r *http.Request) {
		host := r.Host
		originalDirector(r)
		r.Header.Set("X-Forwarded-Host", host)
		r.Header.Set("X-Forwarded-Proto", "http")
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		t.log.WithError(err).Warn("sse proxy upstream failure")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, "Error: %v", err)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("0.0.0.0", strconv.Itoa(t.hostPort)))
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.listener = ln
	t.server = &http.Server{Handler: proxy}
	t.running = true
	t.mu.Unlock()

	go func() {
		if err := t.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			t.log.WithError(err).Error("sse proxy listener exited")
		}
	}()
	return nil
}

// Stop fires the graceful-shutdown trigger; idempotent on double-fire.
func (t *Transport) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	server := t.server
	t.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// IsRunning reports true from Start until the shutdown trigger fires.
func (t *Transport) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
