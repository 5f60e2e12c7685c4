package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jedgentry/llm-rename/pkg/types"
)

const (
	defaultReceiveTimeout = 10 * time.Second
)

// ErrClosed is returned when sending on a stopped transport
var ErrClosed = errors.New("transport is closed")

var _ types.Transport = &JsonRpcTransport{}

// ResponseError is a JSON-RPC error object returned by the server
type ResponseError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

type reply struct {
	result json.RawMessage
	err    error
}

// JsonRpcTransport handles low-level JSON-RPC communication
type JsonRpcTransport struct {
	writer    io.Writer
	reader    *bufio.Reader
	timeout   time.Duration
	requestID int64
	responses map[int64]chan reply
	mu        sync.RWMutex
	writeMu   sync.Mutex
	done      chan struct{}
	stopOnce  sync.Once
}

// NewJsonRpcTransport creates a new JSON-RPC transport.
// A zero timeout selects the default of 10 seconds.
func NewJsonRpcTransport(writer io.Writer, reader io.Reader, timeout time.Duration) *JsonRpcTransport {
	if timeout <= 0 {
		timeout = defaultReceiveTimeout
	}
	return &JsonRpcTransport{
		writer:    writer,
		reader:    bufio.NewReader(reader),
		timeout:   timeout,
		responses: make(map[int64]chan reply),
		done:      make(chan struct{}),
	}
}

func (t *JsonRpcTransport) Start() error {
	slog.Debug("Starting JSON-RPC transport")
	go t.readMessages()
	return nil
}

func (t *JsonRpcTransport) Stop() error {
	t.stopOnce.Do(func() {
		slog.Debug("Stopping JSON-RPC transport")
		close(t.done)
	})
	return nil
}

func (t *JsonRpcTransport) isClosed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *JsonRpcTransport) readMessages() {
	slog.Debug("Reading JSON-RPC messages")

	defer func() {
		_ = t.Stop()
	}()

	for {
		if t.isClosed() {
			return
		}

		body, err := t.readMessage()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Error("Failed to read JSON-RPC message", "error", err)
			}
			return
		}
		t.handleMessage(body)
	}
}

// readMessage reads one Content-Length framed message body
func (t *JsonRpcTransport) readMessage() ([]byte, error) {
	contentLength := -1
	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if contentLength < 0 {
				// Stray blank line between messages
				continue
			}
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			slog.Error("Malformed JSON-RPC header line", "line", line)
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length %q: %w", value, err)
			}
			contentLength = n
		}
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(t.reader, body); err != nil {
		return nil, fmt.Errorf("failed to read JSON-RPC body of %d bytes: %w", contentLength, err)
	}
	return body, nil
}

func (t *JsonRpcTransport) handleMessage(content []byte) {
	var msg struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
		Result json.RawMessage `json:"result"`
		Error  *ResponseError  `json:"error"`
	}
	if err := json.Unmarshal(content, &msg); err != nil {
		slog.Error("Failed to unmarshal JSON-RPC message", "error", err, "content", string(content))
		return
	}

	if msg.Method != "" {
		if msg.ID == nil {
			return // ignore notifications
		}
		// Servers may block until the client answers their requests
		// (e.g. window/workDoneProgress/create), so reply with null.
		slog.Debug("Answering server request", "method", msg.Method, "raw_id", string(msg.ID))
		if err := t.writeJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      msg.ID,
			"result":  nil,
		}); err != nil {
			slog.Error("Failed to answer server request", "method", msg.Method, "error", err)
		}
		return
	}

	if msg.ID == nil {
		return
	}

	var id int64
	if err := json.Unmarshal(msg.ID, &id); err != nil {
		slog.Error("Failed to unmarshal JSON-RPC response ID", "error", err, "raw_id", string(msg.ID))
		return
	}

	t.mu.RLock()
	ch, ok := t.responses[id]
	t.mu.RUnlock()

	if !ok {
		slog.Debug("Dropping response for unknown request", "request_id", id)
		return
	}
	r := reply{result: msg.Result}
	if msg.Error != nil {
		r = reply{err: msg.Error}
	}

	// The reader must never block on a waiter
	select {
	case ch <- r:
	default:
		slog.Debug("Dropping duplicate response", "request_id", id)
	}
}

// SendRequest sends a JSON-RPC request and waits for the response
func (t *JsonRpcTransport) SendRequest(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if t.isClosed() {
		return nil, fmt.Errorf("cannot send request: %w", ErrClosed)
	}

	id := atomic.AddInt64(&t.requestID, 1)
	startTime := time.Now()

	slog.Debug("Sending JSON-RPC request", "request_id", id, "method", method)

	ch := make(chan reply, 1)
	t.mu.Lock()
	t.responses[id] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.responses, id)
		t.mu.Unlock()
	}()

	request := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}
	if err := t.writeJSON(request); err != nil {
		return nil, fmt.Errorf("failed to write JSON-RPC request: %w", err)
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		slog.Debug("Received JSON-RPC response",
			"request_id", id,
			"method", method,
			"duration_ms", time.Since(startTime).Milliseconds())
		if r.err != nil {
			return nil, fmt.Errorf("%s: %w", method, r.err)
		}
		return r.result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("request %s abandoned: %w", method, ctx.Err())
	case <-t.done:
		return nil, fmt.Errorf("request %s: %w", method, ErrClosed)
	case <-timer.C:
		slog.Error("Timeout waiting for JSON-RPC response",
			"request_id", id,
			"method", method,
			"timeout_ms", t.timeout.Milliseconds(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return nil, fmt.Errorf("timeout waiting for response to method %s", method)
	}
}

// SendNotification sends a JSON-RPC notification (no response expected)
func (t *JsonRpcTransport) SendNotification(method string, params any) error {
	if t.isClosed() {
		return fmt.Errorf("cannot send notification: %w", ErrClosed)
	}

	slog.Debug("Sending JSON-RPC notification", "method", method)

	notification := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}
	if err := t.writeJSON(notification); err != nil {
		return fmt.Errorf("failed to write JSON-RPC notification: %w", err)
	}

	return nil
}

func (t *JsonRpcTransport) writeJSON(message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON-RPC message: %w", err)
	}
	return t.writeMessage(data)
}

func (t *JsonRpcTransport) writeMessage(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))
	if _, err := t.writer.Write([]byte(header)); err != nil {
		return fmt.Errorf("failed to write JSON-RPC message header: %w", err)
	}

	if _, err := t.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON-RPC message data: %w", err)
	}

	return nil
}
