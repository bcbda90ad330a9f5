package sse

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.Out = io.Discard
	return l.WithField("test", true)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func TestSSEProxyHappyPath(t *testing.T) {
	upstream := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), `"initialize"`)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"1","result":{"serverInfo":{"name":"fake","version":"0.1.0"},"protocolVersion":"0.1.0","capabilities":{}}}`))
		}),
	}
	upstreamPort := freePort(t)
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(upstreamPort)))
	require.NoError(t, err)
	go upstream.Serve(ln)
	defer upstream.Close()

	hostPort := freePort(t)
	tr := New(hostPort, "127.0.0.1", upstreamPort, testLogger())
	require.NoError(t, tr.Start(context.Background()))
	defer tr.Stop(context.Background())

	time.Sleep(50 * time.Millisecond)

	resp, err := http.Post(
		"http://127.0.0.1:"+strconv.Itoa(hostPort)+"/",
		"application/json",
		bytes.NewBufferString(`{"jsonrpc":"2.0","id":"1","method":"initialize","params":{}}`),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "serverInfo")
}

func TestSSEProxyUpstreamFailureSurfacesAsBadGateway(t *testing.T) {
	hostPort := freePort(t)
	deadUpstreamPort := freePort(t) // nothing listening here
	tr := New(hostPort, "127.0.0.1", deadUpstreamPort, testLogger())
	require.NoError(t, tr.Start(context.Background()))
	defer tr.Stop(context.Background())

	time.Sleep(50 * time.Millisecond)

	resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(hostPort) + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Error:")
}

func TestSSEProxyStopIsIdempotent(t *testing.T) {
	hostPort := freePort(t)
	tr := New(hostPort, "", 9999, testLogger())
	require.NoError(t, tr.Start(context.Background()))
	require.NoError(t, tr.Stop(context.Background()))
	require.NoError(t, tr.Stop(context.Background()))
	assert.False(t, tr.IsRunning())
}
