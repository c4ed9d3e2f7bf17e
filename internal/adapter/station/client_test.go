package station

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tallgrasslabs/weathermate-ingest/internal/config"
	"github.com/tallgrasslabs/weathermate-ingest/internal/domain"
)

const fakeR1Response = "r1\r\n" +
	"WS=   ,AT=\r\n" +
	"+000002.20,+000014.30\r\n" +
	"km/h  ,DegC\r\n" +
	">"

// startFakeStation runs a one-shot TCP server that calls handle for each
// accepted connection until the listener closes.
func startFakeStation(t *testing.T, handle func(conn net.Conn)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				handle(conn)
			}()
		}
	}()
	return ln.Addr().String()
}

// serveR1 answers a single r1 request with the canned response.
func serveR1(conn net.Conn) {
	r := bufio.NewReader(conn)
	line, err := r.ReadString('\n')
	if err != nil || line != "r1\r\n" {
		return
	}
	io.WriteString(conn, fakeR1Response)
}

func newTestClient(addr string, retries int) *Client {
	return NewClient(&config.Config{
		StationAddr:    addr,
		StationTimeout: 2 * time.Second,
		StationRetries: retries,
	}, slog.Default())
}

func TestClient_FetchBlock(t *testing.T) {
	addr := startFakeStation(t, serveR1)
	c := newTestClient(addr, 1)

	block, err := c.FetchBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fakeR1Response, string(block))

	obs := domain.DefaultCatalog().Decode(block)
	assert.Equal(t, domain.Observation{"avg_wind_speed": 2.2, "outTemp": 14.3}, obs)
}

func TestClient_FetchBlock_TerminatorWithNewline(t *testing.T) {
	addr := startFakeStation(t, func(conn net.Conn) {
		bufio.NewReader(conn).ReadString('\n')
		io.WriteString(conn, fakeR1Response+"\r\n")
	})
	c := newTestClient(addr, 1)

	block, err := c.FetchBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fakeR1Response+"\r\n", string(block))
}

func TestClient_FetchBlock_RetriesDroppedConnection(t *testing.T) {
	accepts := make(chan struct{}, 4)
	addr := startFakeStation(t, func(conn net.Conn) {
		accepts <- struct{}{}
		// Drop the first connection before answering; serve the retry.
		if len(accepts) == 1 {
			return
		}
		serveR1(conn)
	})
	c := newTestClient(addr, 3)

	block, err := c.FetchBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fakeR1Response, string(block))
	assert.GreaterOrEqual(t, len(accepts), 2)
}

func TestClient_FetchBlock_ExhaustsRetries(t *testing.T) {
	addr := startFakeStation(t, func(conn net.Conn) {
		// Never answer; every attempt sees a closed connection.
	})
	c := newTestClient(addr, 2)

	_, err := c.FetchBlock(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}

func TestClient_FetchBlock_ContextCancelledDuringBackoff(t *testing.T) {
	addr := startFakeStation(t, func(conn net.Conn) {})
	c := newTestClient(addr, 5)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.FetchBlock(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "cancellation should cut the retry loop short")
}

func TestClient_FetchBlock_Unreachable(t *testing.T) {
	// Reserve a port, then close it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := newTestClient(addr, 1)
	_, err = c.FetchBlock(context.Background())
	assert.Error(t, err)
}
