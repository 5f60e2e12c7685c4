package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawMessage struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// fakeServer is the server end of a pair of pipes
type fakeServer struct {
	reader *bufio.Reader
	writer io.Writer
}

func newPipePair(t *testing.T, timeout time.Duration) (*JsonRpcTransport, *fakeServer) {
	t.Helper()

	clientToServerR, clientToServerW := io.Pipe()
	serverToClientR, serverToClientW := io.Pipe()

	tr := NewJsonRpcTransport(clientToServerW, serverToClientR, timeout)
	require.NoError(t, tr.Start())

	t.Cleanup(func() {
		_ = tr.Stop()
		_ = clientToServerR.Close()
		_ = serverToClientW.Close()
	})

	return tr, &fakeServer{
		reader: bufio.NewReader(clientToServerR),
		writer: serverToClientW,
	}
}

func (s *fakeServer) read() (rawMessage, error) {
	var msg rawMessage
	length := 0
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return msg, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			length, _ = strconv.Atoi(v)
		}
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		return msg, err
	}
	err := json.Unmarshal(body, &msg)
	return msg, err
}

func (s *fakeServer) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n%s", len(data), data)
	return err
}

func TestSendRequest_RoutesResponse(t *testing.T) {
	tr, server := newPipePair(t, time.Second)

	go func() {
		req, err := server.read()
		if err != nil {
			return
		}
		_ = server.write(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]any{"method": req.Method},
		})
	}()

	result, err := tr.SendRequest(context.Background(), "textDocument/references", map[string]any{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"textDocument/references"}`, string(result))
}

func TestSendRequest_ErrorResponse(t *testing.T) {
	tr, server := newPipePair(t, time.Second)

	go func() {
		req, err := server.read()
		if err != nil {
			return
		}
		_ = server.write(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": -32601, "message": "method not found"},
		})
	}()

	_, err := tr.SendRequest(context.Background(), "textDocument/unknown", nil)
	require.Error(t, err)

	var rpcErr *ResponseError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32601, rpcErr.Code)
	assert.Contains(t, err.Error(), "method not found")
}

func TestSendRequest_OutOfOrderResponses(t *testing.T) {
	tr, server := newPipePair(t, time.Second)

	go func() {
		var pending []rawMessage
		for i := 0; i < 2; i++ {
			req, err := server.read()
			if err != nil {
				return
			}
			pending = append(pending, req)
		}
		for i := len(pending) - 1; i >= 0; i-- {
			_ = server.write(map[string]any{
				"jsonrpc": "2.0",
				"id":      pending[i].ID,
				"result":  pending[i].Method,
			})
		}
	}()

	methods := []string{"first", "second"}
	results := make([]string, len(methods))
	var wg sync.WaitGroup
	for i, method := range methods {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, err := tr.SendRequest(context.Background(), method, nil)
			if assert.NoError(t, err) {
				_ = json.Unmarshal(raw, &results[i])
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, methods, results)
}

func TestSendRequest_DuplicateResponses(t *testing.T) {
	tr, server := newPipePair(t, time.Second)

	go func() {
		req, err := server.read()
		if err != nil {
			return
		}
		for i := 0; i < 3; i++ {
			_ = server.write(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": i})
		}

		next, err := server.read()
		if err != nil {
			return
		}
		_ = server.write(map[string]any{"jsonrpc": "2.0", "id": next.ID, "result": "after"})
	}()

	raw, err := tr.SendRequest(context.Background(), "first", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `0`, string(raw))

	raw, err = tr.SendRequest(context.Background(), "second", nil)
	require.NoError(t, err, "reader must keep routing after duplicate responses")
	assert.JSONEq(t, `"after"`, string(raw))
}

func TestServerRequestIsAnsweredWithNull(t *testing.T) {
	_, server := newPipePair(t, time.Second)

	require.NoError(t, server.write(map[string]any{
		"jsonrpc": "2.0",
		"id":      "progress-1",
		"method":  "window/workDoneProgress/create",
		"params":  map[string]any{"token": "abc"},
	}))

	answer, err := server.read()
	require.NoError(t, err)
	assert.Equal(t, `"progress-1"`, string(answer.ID))
	assert.Empty(t, answer.Method)
}

func TestSendRequest_Timeout(t *testing.T) {
	tr, server := newPipePair(t, 50*time.Millisecond)

	go func() {
		_, _ = server.read() // never answer
	}()

	_, err := tr.SendRequest(context.Background(), "textDocument/documentSymbol", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout waiting for response to method textDocument/documentSymbol")
}

func TestSendRequest_ContextCancelled(t *testing.T) {
	tr, server := newPipePair(t, time.Second)

	go func() {
		_, _ = server.read()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.SendRequest(ctx, "textDocument/definition", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendAfterStop(t *testing.T) {
	tr, _ := newPipePair(t, time.Second)
	require.NoError(t, tr.Stop())
	require.NoError(t, tr.Stop(), "stopping twice must be safe")

	_, err := tr.SendRequest(context.Background(), "shutdown", nil)
	assert.ErrorIs(t, err, ErrClosed)

	err = tr.SendNotification("exit", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSendNotification_Framing(t *testing.T) {
	tr, server := newPipePair(t, time.Second)

	errCh := make(chan error, 1)
	go func() {
		errCh <- tr.SendNotification("initialized", map[string]any{})
	}()

	msg, err := server.read()
	require.NoError(t, err)
	assert.Equal(t, "initialized", msg.Method)
	assert.Nil(t, msg.ID)
	require.NoError(t, <-errCh)
}
