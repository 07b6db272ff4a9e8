package mailer

import "context"

// Transport opens connections to a mail delivery backend.
// Bulk sends open one connection and reuse it for every message.
type Transport interface {
	// Open acquires a connection. Implementations without a real
	// connection may return a lightweight handle.
	Open(ctx context.Context) (Connection, error)
}

// Connection delivers composed messages.
// A Connection is used sequentially and is not safe for concurrent use.
type Connection interface {
	// Deliver sends a single message.
	// Returns an error if delivery fails; the caller decides whether to surface it.
	Deliver(ctx context.Context, email *Email) error

	// Close releases the connection.
	Close() error
}

// Sender is the minimal single-shot provider interface, e.g. an HTTP API client.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// SenderTransport adapts a Sender to the Transport interface.
// Every Open returns a handle that forwards to the same Sender.
func SenderTransport(s Sender) Transport {
	return senderTransport{s}
}

type senderTransport struct {
	sender Sender
}

func (t senderTransport) Open(context.Context) (Connection, error) {
	return senderConn(t), nil
}

type senderConn struct {
	sender Sender
}

func (c senderConn) Deliver(ctx context.Context, email *Email) error {
	return c.sender.Send(ctx, email)
}

func (senderConn) Close() error { return nil }
