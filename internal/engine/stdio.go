package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// request is one engine call on the wire: a single JSON line on stdin.
type request struct {
	ID           uint64  `json:"id"`
	Method       string  `json:"method"`
	Network      string  `json:"network,omitempty"`
	AccountIndex int     `json:"accountIndex"`
	Args         *string `json:"args"`
}

// response is one engine reply: a single JSON line on stdout.
type response struct {
	ID     uint64  `json:"id"`
	Result *string `json:"result"`
	Error  string  `json:"error,omitempty"`
}

// StdioChannel talks to an engine subprocess over newline-delimited JSON on
// its stdin/stdout. A single long-lived goroutine owns stdout and routes
// each reply to the call waiting on its id, so an abandoned call's late
// reply can never be misdelivered to a newer call.
type StdioChannel struct {
	log   zerolog.Logger
	cmd   *exec.Cmd
	stdin io.WriteCloser

	wmu sync.Mutex // serializes stdin writes

	mu      sync.Mutex
	nextID  uint64
	closed  bool
	pending map[uint64]chan *response
	readErr error
}

var _ Channel = (*StdioChannel)(nil)

// DialStdio launches the engine command and attaches a channel to it.
func DialStdio(ctx context.Context, command []string, log zerolog.Logger) (*StdioChannel, error) {
	if len(command) == 0 {
		return nil, lanterr.Wrap(lanterr.ErrConfigInvalid, "engine command is empty")
	}

	// #nosec G204 -- engine command comes from validated configuration
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, lanterr.Wrap(err, "attaching engine stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, lanterr.Wrap(err, "attaching engine stdout")
	}

	if err := cmd.Start(); err != nil {
		return nil, lanterr.Wrap(lanterr.ErrEngineStartFailed, "launching %s: %v", command[0], err)
	}

	return newStdioChannel(log, cmd, stdin, stdout), nil
}

// newStdioChannel wires a channel over the given pipes and starts the reader.
// cmd may be nil when the peer is not a subprocess (tests).
func newStdioChannel(log zerolog.Logger, cmd *exec.Cmd, stdin io.WriteCloser, stdout io.Reader) *StdioChannel {
	c := &StdioChannel{
		log:     log.With().Str("component", "engine-channel").Logger(),
		cmd:     cmd,
		stdin:   stdin,
		pending: make(map[uint64]chan *response),
	}
	go c.readLoop(bufio.NewReader(stdout))
	return c
}

// readLoop is the sole reader of engine stdout. Replies are routed by id;
// a reply with no waiter (a canceled call's late response) is discarded. On
// read failure every pending call is failed and the loop exits.
func (c *StdioChannel) readLoop(out *bufio.Reader) {
	for {
		data, err := out.ReadBytes('\n')
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			for id, ch := range c.pending {
				delete(c.pending, id)
				close(ch)
			}
			c.mu.Unlock()
			return
		}

		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			c.log.Warn().Err(err).Msg("discarding undecodable engine line")
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()

		if !ok {
			c.log.Debug().Uint64("id", resp.ID).Msg("discarding stale engine response")
			continue
		}
		ch <- &resp
	}
}

// Call writes one request line and waits for the reply carrying its id. A
// canceled context abandons the wait; the reply, if it ever arrives, is
// discarded by the reader.
func (c *StdioChannel) Call(ctx context.Context, method, network string, accountIndex int, args *string) (*string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, lanterr.Wrap(lanterr.ErrEngineCallFailed, "channel is closed")
	}
	if c.readErr != nil {
		err := c.readErr
		c.mu.Unlock()
		return nil, lanterr.Wrap(lanterr.ErrEngineCallFailed, "reading engine response: %v", err)
	}
	c.nextID++
	id := c.nextID
	ch := make(chan *response, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	req := request{
		ID:           id,
		Method:       method,
		Network:      network,
		AccountIndex: accountIndex,
		Args:         args,
	}
	line, err := json.Marshal(req)
	if err != nil {
		c.forget(id)
		return nil, lanterr.Wrap(err, "encoding %s request", method)
	}
	line = append(line, '\n')

	c.wmu.Lock()
	_, err = c.stdin.Write(line)
	c.wmu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, lanterr.Wrap(lanterr.ErrEngineCallFailed, "writing %s request: %v", method, err)
	}

	select {
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			c.mu.Lock()
			readErr := c.readErr
			c.mu.Unlock()
			return nil, lanterr.Wrap(lanterr.ErrEngineCallFailed, "reading engine response: %v", readErr)
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("%s: %s", method, resp.Error)
		}
		return resp.Result, nil
	}
}

// forget drops a pending call so the reader stops holding a route for it.
func (c *StdioChannel) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// closeWait bounds how long Close waits for the engine process to exit
// before killing it.
const closeWait = 5 * time.Second

// Close shuts the channel down: stdin is closed so the engine sees EOF, and
// the process gets closeWait to exit before being killed. The reader exits
// on the EOF that follows.
func (c *StdioChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	_ = c.stdin.Close()

	if c.cmd == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(closeWait):
		c.log.Warn().Msg("engine did not exit, killing")
		_ = c.cmd.Process.Kill()
		return <-done
	}
}
