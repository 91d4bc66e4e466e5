package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const requestTimeout = 60 * time.Second

// WebSocketBridge implements Bridge against a remote speech service
// speaking JSON-RPC 2.0 over WebSocket. Recognition and synthesis requests
// stay pending on the wire until the service reports a transcript, finished
// playback, a failure or a cancellation.
type WebSocketBridge struct {
	name    string
	url     string
	conn    *websocket.Conn
	reqID   atomic.Int32
	logger  *slog.Logger
	support Support

	writeMu sync.Mutex
	mu      sync.Mutex
	pending map[int]chan *JSONRPCResponse
	closed  bool

	listening atomic.Bool
	speaking  atomic.Bool
}

// NewWebSocketBridge connects to the speech service and fetches its
// capabilities.
func NewWebSocketBridge(url string, logger *slog.Logger) (*WebSocketBridge, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to speech service: %w", err)
	}

	b := &WebSocketBridge{
		name:    "speech",
		url:     url,
		conn:    conn,
		logger:  logger,
		pending: make(map[int]chan *JSONRPCResponse),
	}
	go b.readLoop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var desc DescribeResult
	if err := b.call(ctx, MethodDescribe, nil, &desc); err != nil {
		b.Close()
		return nil, fmt.Errorf("describe failed: %w", err)
	}
	b.support = desc.Support

	logger.Info("connected to speech service",
		"url", url,
		"service", desc.ServiceName,
		"version", desc.Version,
		"recognition", desc.Support.Recognition,
		"synthesis", desc.Support.Synthesis)
	return b, nil
}

// Support reports the capabilities the service advertised.
func (b *WebSocketBridge) Support() Support {
	return b.support
}

// StartListening begins a speech-to-text capture. A capture already in
// flight is left alone, matching the platform behavior of a single
// recognizer instance.
func (b *WebSocketBridge) StartListening(onResult func(string), onError func(error)) {
	if !b.support.Recognition {
		if onError != nil {
			onError(ErrUnavailable)
		}
		return
	}
	if !b.listening.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer b.listening.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var result RecognizeResult
		err := b.call(ctx, MethodRecognize, nil, &result)
		if err != nil {
			mapped := mapRPCError(err)
			if mapped == nil {
				// Cancelled by StopListening; nothing to report.
				return
			}
			b.logger.Warn("speech recognition failed", "error", err)
			if onError != nil {
				onError(mapped)
			}
			return
		}

		b.logger.Info("speech recognized", "chars", len(result.Transcript))
		if onResult != nil {
			onResult(result.Transcript)
		}
	}()
}

// StopListening cancels an in-flight capture. Safe to call when idle.
func (b *WebSocketBridge) StopListening() {
	if !b.listening.Load() {
		return
	}
	b.notify(MethodCancel, CancelParams{Target: TargetRecognition})
}

// Speak vocalizes text, cancelling any vocalization already in flight.
// onEnd runs when playback ends, fails or is cancelled.
func (b *WebSocketBridge) Speak(text string, onEnd func()) {
	if !b.support.Synthesis {
		if onEnd != nil {
			onEnd()
		}
		return
	}

	b.StopSpeaking()
	b.speaking.Store(true)

	go func() {
		defer func() {
			b.speaking.Store(false)
			if onEnd != nil {
				onEnd()
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var result SynthesizeResult
		if err := b.call(ctx, MethodSynthesize, SynthesizeParams{Text: text, Rate: 0.9, Pitch: 1, Volume: 1}, &result); err != nil {
			if mapped := mapRPCError(err); mapped != nil {
				b.logger.Warn("speech synthesis failed", "error", err)
			}
		}
	}()
}

// StopSpeaking cancels in-flight vocalization. Safe to call when idle.
func (b *WebSocketBridge) StopSpeaking() {
	if !b.speaking.Load() {
		return
	}
	b.notify(MethodCancel, CancelParams{Target: TargetSynthesis})
}

// Close disconnects from the speech service.
func (b *WebSocketBridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for id, ch := range b.pending {
		close(ch)
		delete(b.pending, id)
	}
	b.mu.Unlock()

	if b.conn != nil {
		b.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		b.conn.Close()
	}

	b.logger.Info("closed speech bridge", "url", b.url)
	return nil
}

// call sends a JSON-RPC request and waits for the matching response.
func (b *WebSocketBridge) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	id := int(b.reqID.Add(1))
	ch := make(chan *JSONRPCResponse, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("bridge is closed")
	}
	b.pending[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	if err := b.write(JSONRPCRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return fmt.Errorf("bridge closed while waiting for response")
		}
		if resp.Error != nil {
			return &rpcFault{code: resp.Error.Code, message: resp.Error.Message}
		}
		if result != nil {
			resultJSON, err := json.Marshal(resp.Result)
			if err != nil {
				return fmt.Errorf("failed to marshal result: %w", err)
			}
			if err := json.Unmarshal(resultJSON, result); err != nil {
				return fmt.Errorf("failed to unmarshal result: %w", err)
			}
		}
		return nil
	}
}

// notify sends a request without waiting for a response.
func (b *WebSocketBridge) notify(method string, params interface{}) {
	id := int(b.reqID.Add(1))
	if err := b.write(JSONRPCRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		b.logger.Warn("failed to send speech notification", "method", method, "error", err)
	}
}

func (b *WebSocketBridge) write(req JSONRPCRequest) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteJSON(req)
}

// readLoop dispatches responses to their pending callers.
func (b *WebSocketBridge) readLoop() {
	for {
		var resp JSONRPCResponse
		if err := b.conn.ReadJSON(&resp); err != nil {
			b.mu.Lock()
			closed := b.closed
			for id, ch := range b.pending {
				close(ch)
				delete(b.pending, id)
			}
			b.mu.Unlock()
			if !closed {
				b.logger.Warn("speech service connection lost", "error", err)
			}
			return
		}

		b.mu.Lock()
		ch, ok := b.pending[resp.ID]
		b.mu.Unlock()
		if ok {
			ch <- &resp
		}
	}
}

// rpcFault carries a service error code through the error chain.
type rpcFault struct {
	code    int
	message string
}

func (e *rpcFault) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.code, e.message)
}

// mapRPCError translates service faults into the bridge's sentinel errors.
// A cancelled operation maps to nil: it was requested locally and needs no
// reporting.
func mapRPCError(err error) error {
	if fault, ok := err.(*rpcFault); ok {
		switch fault.code {
		case CodePermissionDenied:
			return ErrPermissionDenied
		case CodeCancelled:
			return nil
		default:
			return ErrRecognition
		}
	}
	return err
}
