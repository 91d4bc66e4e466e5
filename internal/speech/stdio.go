package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// StdioBridge implements Bridge against a local speech engine subprocess
// speaking line-delimited JSON-RPC 2.0 over stdin/stdout. It is the local
// counterpart to WebSocketBridge for machines without a remote speech
// service.
type StdioBridge struct {
	name    string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	stderr  io.ReadCloser
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

// NewStdioBridge starts the speech engine command and fetches its
// capabilities.
func NewStdioBridge(command string, logger *slog.Logger) (*StdioBridge, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	cmd := exec.Command(command)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return nil, fmt.Errorf("failed to start speech engine: %w", err)
	}

	b := &StdioBridge{
		name:    "speech-engine",
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
		pending: make(map[int]chan *JSONRPCResponse),
	}
	go b.readLoop()
	go b.logStderr()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var desc DescribeResult
	if err := b.call(ctx, MethodDescribe, nil, &desc); err != nil {
		b.Close()
		return nil, fmt.Errorf("describe failed: %w", err)
	}
	b.support = desc.Support

	logger.Info("started speech engine",
		"command", command,
		"service", desc.ServiceName,
		"version", desc.Version,
		"recognition", desc.Support.Recognition,
		"synthesis", desc.Support.Synthesis)
	return b, nil
}

// Support reports the capabilities the engine advertised.
func (b *StdioBridge) Support() Support {
	return b.support
}

// StartListening begins a speech-to-text capture.
func (b *StdioBridge) StartListening(onResult func(string), onError func(error)) {
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
				return
			}
			b.logger.Warn("speech recognition failed", "error", err)
			if onError != nil {
				onError(mapped)
			}
			return
		}

		if onResult != nil {
			onResult(result.Transcript)
		}
	}()
}

// StopListening cancels an in-flight capture. Safe to call when idle.
func (b *StdioBridge) StopListening() {
	if !b.listening.Load() {
		return
	}
	b.notify(MethodCancel, CancelParams{Target: TargetRecognition})
}

// Speak vocalizes text, cancelling any vocalization already in flight.
func (b *StdioBridge) Speak(text string, onEnd func()) {
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
			if mapRPCError(err) != nil {
				b.logger.Warn("speech synthesis failed", "error", err)
			}
		}
	}()
}

// StopSpeaking cancels in-flight vocalization. Safe to call when idle.
func (b *StdioBridge) StopSpeaking() {
	if !b.speaking.Load() {
		return
	}
	b.notify(MethodCancel, CancelParams{Target: TargetSynthesis})
}

// Close shuts down the speech engine process.
func (b *StdioBridge) Close() error {
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

	if b.stdin != nil {
		b.stdin.Close()
	}
	if b.stdout != nil {
		b.stdout.Close()
	}
	if b.stderr != nil {
		b.stderr.Close()
	}

	if b.cmd != nil && b.cmd.Process != nil {
		if err := b.cmd.Process.Kill(); err != nil {
			b.logger.Warn("failed to kill speech engine process", "error", err)
		}
		b.cmd.Wait() // Clean up zombie process
	}

	b.logger.Info("closed speech engine", "name", b.name)
	return nil
}

func (b *StdioBridge) call(ctx context.Context, method string, params interface{}, result interface{}) error {
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

func (b *StdioBridge) notify(method string, params interface{}) {
	id := int(b.reqID.Add(1))
	if err := b.write(JSONRPCRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		b.logger.Warn("failed to send speech notification", "method", method, "error", err)
	}
}

func (b *StdioBridge) write(req JSONRPCRequest) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	requestJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	_, err = b.stdin.Write(append(requestJSON, '\n'))
	return err
}

// readLoop dispatches line-delimited responses to their pending callers.
func (b *StdioBridge) readLoop() {
	scanner := bufio.NewScanner(b.stdout)
	for scanner.Scan() {
		var resp JSONRPCResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			b.logger.Warn("unparseable speech engine response", "error", err)
			continue
		}

		b.mu.Lock()
		ch, ok := b.pending[resp.ID]
		b.mu.Unlock()
		if ok {
			ch <- &resp
		}
	}

	b.mu.Lock()
	closed := b.closed
	for id, ch := range b.pending {
		close(ch)
		delete(b.pending, id)
	}
	b.mu.Unlock()
	if !closed {
		b.logger.Warn("speech engine exited", "error", scanner.Err())
	}
}

// logStderr logs stderr output from the speech engine process.
func (b *StdioBridge) logStderr() {
	scanner := bufio.NewScanner(b.stderr)
	for scanner.Scan() {
		b.logger.Warn("speech engine stderr", "engine", b.name, "message", scanner.Text())
	}
}
