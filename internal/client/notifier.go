package client

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophshare/internal/wire"
)

// Notifier receives live notifications for one user.
type Notifier struct {
	nc   net.Conn
	conn *wire.Conn
}

// DialNotifier connects to the notification port and registers username.
func DialNotifier(ctx context.Context, addr, username string, maxFrame int) (*Notifier, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	n := &Notifier{nc: nc, conn: wire.NewConn(nc, maxFrame)}

	defer bindConn(ctx, nc)()

	if err := n.conn.Send(&wire.Message{Kind: wire.KindRegister, Text: username}); err != nil {
		nc.Close()
		return nil, err
	}
	m, err := n.conn.Recv()
	if err != nil {
		nc.Close()
		return nil, err
	}
	if m.Kind != wire.KindInfo {
		nc.Close()
		return nil, &ServerError{Text: m.Text}
	}
	return n, nil
}

// Next blocks until a notification arrives. It returns ErrDisconnected when
// the server ends the channel.
func (n *Notifier) Next(ctx context.Context) (string, error) {
	defer bindConn(ctx, n.nc)()

	for {
		m, err := n.conn.Recv()
		if err != nil {
			return "", err
		}
		switch m.Kind {
		case wire.KindNotification:
			return m.Text, nil
		case wire.KindDisconnect:
			return "", ErrDisconnected
		}
	}
}

// Close tells the server the client is leaving and closes the connection.
func (n *Notifier) Close() error {
	_ = n.conn.Send(&wire.Message{Kind: wire.KindDisconnect})
	return n.nc.Close()
}
