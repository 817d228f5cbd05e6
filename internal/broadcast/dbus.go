package broadcast

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/walltab/walltab/internal/domain"
	"go.uber.org/zap"
)

const (
	busPath      = dbus.ObjectPath("/io/walltab/Broadcast")
	busInterface = "io.walltab.Broadcast"
	busMember    = "Message"
	signalBuffer = 16
)

// BusClient is the slice of the D-Bus connection the broadcaster needs.
// An interface so tests can run without a session bus.
type BusClient interface {
	// Close closes the connection
	Close() error

	// AddMatchSignal adds a signal match rule
	AddMatchSignal(options ...dbus.MatchOption) error

	// Signal registers a channel to receive matched signals
	Signal(ch chan<- *dbus.Signal)

	// Emit emits a signal on the bus
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// StdBusClient is the real client over a session-bus connection
type StdBusClient struct {
	conn *dbus.Conn
}

// NewStdBusClient connects to the session bus
func NewStdBusClient() (*StdBusClient, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &StdBusClient{conn: conn}, nil
}

// Close closes the connection
func (c *StdBusClient) Close() error {
	return c.conn.Close()
}

// AddMatchSignal adds a signal match rule
func (c *StdBusClient) AddMatchSignal(options ...dbus.MatchOption) error {
	return c.conn.AddMatchSignal(options...)
}

// Signal registers a channel to receive matched signals
func (c *StdBusClient) Signal(ch chan<- *dbus.Signal) {
	c.conn.Signal(ch)
}

// Emit emits a signal on the bus
func (c *StdBusClient) Emit(path dbus.ObjectPath, name string, values ...interface{}) error {
	return c.conn.Emit(path, name, values...)
}

// SessionBus broadcasts messages as session-bus signals so every running
// context sharing the storage namespace converges, including this one:
// the bus reflects our own signals back, which is exactly the refetch
// trigger the display needs after a local save.
type SessionBus struct {
	logger *zap.Logger
	conn   BusClient

	mu   sync.RWMutex
	subs []func(domain.Message)
}

// NewSessionBus connects to the session bus and starts dispatching
// incoming broadcast signals
func NewSessionBus(logger *zap.Logger) (*SessionBus, error) {
	conn, err := NewStdBusClient()
	if err != nil {
		return nil, fmt.Errorf("session bus connection failed: %w", err)
	}
	return newSessionBus(logger, conn)
}

// newSessionBus finishes construction over an arbitrary client
func newSessionBus(logger *zap.Logger, conn BusClient) (*SessionBus, error) {
	b := &SessionBus{logger: logger, conn: conn}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(busPath),
		dbus.WithMatchInterface(busInterface),
		dbus.WithMatchMember(busMember),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to add match signal: %w", err)
	}

	ch := make(chan *dbus.Signal, signalBuffer)
	conn.Signal(ch)
	go b.dispatch(ch)

	logger.Info("Session bus broadcaster started")
	return b, nil
}

// Broadcast emits the message as a signal
func (b *SessionBus) Broadcast(ctx context.Context, msg domain.Message) error {
	if err := b.conn.Emit(busPath, busInterface+"."+busMember, msg.Action); err != nil {
		return fmt.Errorf("failed to emit broadcast signal: %w", err)
	}
	b.logger.Debug("Broadcast emitted", zap.String("action", msg.Action))
	return nil
}

// Subscribe registers fn for every future broadcast, own signals included
func (b *SessionBus) Subscribe(fn func(domain.Message)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Close shuts the connection down
func (b *SessionBus) Close() error {
	return b.conn.Close()
}

// dispatch fans incoming signals out to every subscriber
func (b *SessionBus) dispatch(ch <-chan *dbus.Signal) {
	for sig := range ch {
		if sig.Name != busInterface+"."+busMember || len(sig.Body) == 0 {
			continue
		}
		action, ok := sig.Body[0].(string)
		if !ok {
			b.logger.Debug("Ignoring malformed broadcast signal")
			continue
		}

		b.mu.RLock()
		subs := make([]func(domain.Message), len(b.subs))
		copy(subs, b.subs)
		b.mu.RUnlock()

		for _, fn := range subs {
			fn(domain.Message{Action: action})
		}
	}
}
