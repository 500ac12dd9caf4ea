package tcp

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/dmitrijs2005/gophshare/internal/server/notify"
	"github.com/dmitrijs2005/gophshare/internal/wire"
)

// registerTimeout bounds how long a fresh notification connection may take
// to identify itself.
const registerTimeout = 30 * time.Second

// handleNotifier serves one notification connection: the client registers
// a username, then receives pushes until either side disconnects.
func (s *Server) handleNotifier(ctx context.Context, nc net.Conn) {
	conn := wire.NewConn(nc, s.svc.MaxFrame)
	log := s.logger.With("remote", nc.RemoteAddr().String(), "channel", "notify")

	_ = nc.SetReadDeadline(time.Now().Add(registerTimeout))
	m, err := conn.Expect(wire.KindRegister)
	if err != nil {
		if errors.Is(err, common.ErrProtocolViolation) {
			_ = conn.Send(&wire.Message{Kind: wire.KindError, Text: err.Error()})
		}
		log.Debug(ctx, "registration failed", "error", err)
		return
	}
	_ = nc.SetReadDeadline(time.Time{})

	user := strings.TrimSpace(m.Text)
	if user == "" {
		_ = conn.Send(&wire.Message{Kind: wire.KindError, Text: common.ErrEmptyField.Error()})
		return
	}
	log = log.With("username", user)

	size := s.svc.NotifyQueueSize
	if size <= 0 {
		size = 64
	}
	sub := notify.NewSubscriber(user, size)
	s.svc.Hub.Register(sub)
	defer func() {
		s.svc.Hub.Unregister(sub)
		sub.Close()
	}()

	if err := conn.Send(&wire.Message{Kind: wire.KindInfo, Text: "Notification channel registered for " + user}); err != nil {
		return
	}
	log.Info(ctx, "notification channel registered")

	// the reader only watches for disconnects; anything else is ignored
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			m, err := conn.Recv()
			if err != nil {
				return
			}
			if m.Kind == wire.KindDisconnect {
				return
			}
		}
	}()

	for {
		select {
		case text := <-sub.C():
			if err := conn.Send(&wire.Message{Kind: wire.KindNotification, Text: text}); err != nil {
				log.Debug(ctx, "push failed", "error", err)
				return
			}
		case <-gone:
			log.Info(ctx, "notification channel closed by client")
			return
		case <-sub.Done():
			_ = conn.Send(&wire.Message{Kind: wire.KindDisconnect})
			log.Info(ctx, "notification channel dropped")
			return
		case <-ctx.Done():
			_ = conn.Send(&wire.Message{Kind: wire.KindDisconnect})
			return
		}
	}
}
