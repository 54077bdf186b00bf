package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Handler serves one RPC method. The payload is the raw JSON request body.
type Handler func(ctx context.Context, payload []byte) (any, error)

// Response is the envelope every RPC reply is wrapped in.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// RemoteError is returned by Call when the remote handler failed.
type RemoteError struct {
	Subject string
	Msg     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject, e.Msg)
}

// Dispatcher exposes RPC methods as NATS request/reply subjects.
type Dispatcher struct {
	conn    *nats.Conn
	queue   string
	timeout time.Duration
	logger  *zap.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewDispatcher creates a dispatcher on an existing connection. Handlers join
// the queue group so several daemons can serve the same subjects.
func NewDispatcher(nc *nats.Conn, cfg Config, logger *zap.Logger) *Dispatcher {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		conn:    nc,
		queue:   cfg.Queue,
		timeout: timeout,
		logger:  logger,
	}
}

// Register serves subject with h.
func (d *Dispatcher) Register(subject string, h Handler) error {
	sub, err := d.conn.QueueSubscribe(subject, d.queue, func(msg *nats.Msg) {
		d.serve(subject, h, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", subject, err)
	}

	d.mu.Lock()
	d.subs = append(d.subs, sub)
	d.mu.Unlock()

	d.logger.Debug("Registered RPC method", zap.String("subject", subject))
	return nil
}

// Flush makes sure every registration reached the server.
func (d *Dispatcher) Flush() error {
	return d.conn.Flush()
}

func (d *Dispatcher) serve(subject string, h Handler, msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var resp Response
	result, err := h(ctx, msg.Data)
	if err != nil {
		d.logger.Warn("RPC method failed", zap.String("subject", subject), zap.Error(err))
		resp.Error = err.Error()
	} else if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			resp.Error = fmt.Sprintf("marshaling result: %v", err)
		} else {
			resp.Result = data
		}
	}

	data, _ := json.Marshal(resp)
	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(data); err != nil {
		d.logger.Warn("Failed to send RPC reply", zap.String("subject", subject), zap.Error(err))
	}
}

// Close unsubscribes every registered method.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, sub := range d.subs {
		if err := sub.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	d.subs = nil
	return errors.Join(errs...)
}

// Call invokes a remote method and decodes its result into out (which may be nil).
func Call(ctx context.Context, nc *nats.Conn, subject string, req any, out any) error {
	var payload []byte
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		payload = data
	}

	msg, err := nc.RequestWithContext(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("calling %s: %w", subject, err)
	}

	var resp Response
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return fmt.Errorf("decoding reply from %s: %w", subject, err)
	}
	if resp.Error != "" {
		return &RemoteError{Subject: subject, Msg: resp.Error}
	}
	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("decoding result from %s: %w", subject, err)
		}
	}
	return nil
}
