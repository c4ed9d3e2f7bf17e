// Package station implements the raw TCP request/response channel to an
// Environdata Weather Mate 3000. The station speaks a line-oriented ASCII
// protocol: the client sends a short command ("r1") and the station answers
// with a block terminated by a ">" line.
package station

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/tallgrasslabs/weathermate-ingest/internal/config"
)

// requestR1 asks the station for its current readings block.
const requestR1 = "r1\r\n"

// terminator marks the final line of a response block.
const terminator = ">"

// Client fetches raw r1 blocks from the station. It implements
// pipeline.BlockSource. Each fetch dials a fresh connection; the station's
// serial-to-ethernet bridge handles exactly one exchange well and long-lived
// connections go stale between polls.
type Client struct {
	addr    string
	timeout time.Duration
	retries int
	logger  *slog.Logger
	dialer  net.Dialer
}

// NewClient creates a station client from config.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		addr:    cfg.StationAddr,
		timeout: cfg.StationTimeout,
		retries: cfg.StationRetries,
		logger:  logger,
	}
}

// FetchBlock requests one r1 block, retrying with a short doubling backoff.
// After the last attempt it reports the final error; the caller treats a
// failed cycle as absent data and keeps polling.
func (c *Client) FetchBlock(ctx context.Context) ([]byte, error) {
	backoff := 250 * time.Millisecond
	var lastErr error

	for attempt := 1; attempt <= c.retries; attempt++ {
		block, err := c.fetchOnce(ctx)
		if err == nil {
			return block, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Debug("station query failed", "attempt", attempt, "error", err)
		if attempt < c.retries {
			if !sleepWithContext(ctx, backoff) {
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("station %s: %w", c.addr, lastErr)
}

// fetchOnce performs a single dial-request-read exchange.
func (c *Client) fetchOnce(ctx context.Context) ([]byte, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(dialCtx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	if _, err := conn.Write([]byte(requestR1)); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	return readBlock(conn)
}

// readBlock accumulates response lines up to and including the terminator.
// The terminator line may arrive without a trailing newline, so EOF after the
// terminator is a complete block, not an error.
func readBlock(conn net.Conn) ([]byte, error) {
	r := bufio.NewReader(conn)
	var buf bytes.Buffer

	for {
		line, err := r.ReadString('\n')
		buf.WriteString(line)
		if strings.HasPrefix(strings.TrimSpace(line), terminator) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
