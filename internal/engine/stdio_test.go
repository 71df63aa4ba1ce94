package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeChannel wires a StdioChannel to in-memory pipes so a test can play
// the engine side of the protocol.
type pipeChannel struct {
	ch       *StdioChannel
	requests *bufio.Scanner
	replies  io.Writer
}

func newPipeChannel(t *testing.T) *pipeChannel {
	t.Helper()

	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()

	ch := newStdioChannel(zerolog.Nop(), nil, stdinW, stdoutR)
	t.Cleanup(func() {
		_ = ch.Close()
		_ = stdoutW.Close()
	})

	return &pipeChannel{
		ch:       ch,
		requests: bufio.NewScanner(stdinR),
		replies:  stdoutW,
	}
}

// readRequest consumes the next request line written by the channel.
func (p *pipeChannel) readRequest(t *testing.T) request {
	t.Helper()
	require.True(t, p.requests.Scan(), "expected a request line")
	var req request
	require.NoError(t, json.Unmarshal(p.requests.Bytes(), &req))
	return req
}

// reply writes one response line for id carrying result.
func (p *pipeChannel) reply(t *testing.T, id uint64, result string) {
	t.Helper()
	_, err := fmt.Fprintf(p.replies, `{"id":%d,"result":%q}`+"\n", id, result)
	require.NoError(t, err)
}

func TestStdioCallRoundTrip(t *testing.T) {
	t.Parallel()

	p := newPipeChannel(t)

	type callResult struct {
		result *string
		err    error
	}
	done := make(chan callResult, 1)
	go func() {
		result, err := p.ch.Call(context.Background(), MethodGetBalances, "eth", 0, nil)
		done <- callResult{result: result, err: err}
	}()

	req := p.readRequest(t)
	assert.Equal(t, MethodGetBalances, req.Method)
	assert.Equal(t, "eth", req.Network)
	p.reply(t, req.ID, "ok")

	res := <-done
	require.NoError(t, res.err)
	require.NotNil(t, res.result)
	assert.Equal(t, "ok", *res.result)
}

func TestStdioCallEngineError(t *testing.T) {
	t.Parallel()

	p := newPipeChannel(t)

	done := make(chan error, 1)
	go func() {
		_, err := p.ch.Call(context.Background(), MethodGetBalances, "eth", 0, nil)
		done <- err
	}()

	req := p.readRequest(t)
	_, err := fmt.Fprintf(p.replies, `{"id":%d,"error":"no such account"}`+"\n", req.ID)
	require.NoError(t, err)

	callErr := <-done
	require.Error(t, callErr)
	assert.Contains(t, callErr.Error(), "no such account")
}

func TestStdioLateReplyNotMisdelivered(t *testing.T) {
	t.Parallel()

	p := newPipeChannel(t)

	// First call is abandoned by cancellation before the engine replies.
	ctx, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := p.ch.Call(ctx, MethodGetBalances, "eth", 0, nil)
		firstDone <- err
	}()
	first := p.readRequest(t)
	cancel()
	require.ErrorIs(t, <-firstDone, context.Canceled)

	// Second call goes out while the first reply is still pending on the
	// engine side.
	type callResult struct {
		result *string
		err    error
	}
	secondDone := make(chan callResult, 1)
	go func() {
		result, err := p.ch.Call(context.Background(), MethodGetAddresses, "eth", 0, nil)
		secondDone <- callResult{result: result, err: err}
	}()
	second := p.readRequest(t)
	require.NotEqual(t, first.ID, second.ID)

	// The stale reply lands first and must be discarded, not handed to the
	// second call.
	p.reply(t, first.ID, "stale")
	p.reply(t, second.ID, "fresh")

	res := <-secondDone
	require.NoError(t, res.err)
	require.NotNil(t, res.result)
	assert.Equal(t, "fresh", *res.result)
}

func TestStdioReaderFailureFailsPendingCalls(t *testing.T) {
	t.Parallel()

	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()
	ch := newStdioChannel(zerolog.Nop(), nil, stdinW, stdoutR)
	requests := bufio.NewScanner(stdinR)

	done := make(chan error, 1)
	go func() {
		_, err := ch.Call(context.Background(), MethodGetBalances, "eth", 0, nil)
		done <- err
	}()
	require.True(t, requests.Scan())

	// Engine stdout closes mid-call: the pending call fails instead of
	// hanging, and later calls fail fast.
	require.NoError(t, stdoutW.Close())

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pending call hung after reader failure")
	}

	_, err := ch.Call(context.Background(), MethodGetBalances, "eth", 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading engine response")
}
