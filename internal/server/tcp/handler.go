package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"github.com/dmitrijs2005/gophshare/internal/logging"
	"github.com/dmitrijs2005/gophshare/internal/wire"
)

// Menu selectors.
const (
	SelectUsers       = "users"
	SelectMyFiles     = "my-files"
	SelectPublicFiles = "public-files"
	SelectUpload      = "upload"
	SelectDownload    = "download"
	SelectRequest     = "request"
	SelectUnread      = "unread"
	SelectRead        = "read"
	SelectHistory     = "history"
	SelectLogout      = "logout"
)

var menuItems = []string{
	SelectUsers, SelectMyFiles, SelectPublicFiles, SelectUpload, SelectDownload,
	SelectRequest, SelectUnread, SelectRead, SelectHistory, SelectLogout,
}

const menuText = `
=== File Server Menu ===
users         View all clients
my-files      View my files
public-files  View public files of others
upload        Upload a file
download      Download a file
request       Make a file request
unread        View unread messages
read          View read messages
history       View activity history
logout        Logout
`

// errLogout ends the menu loop without an error.
var errLogout = errors.New("logout")

// clientTask drives the protocol for one main-port connection.
type clientTask struct {
	svc  *Services
	conn *wire.Conn
	log  logging.Logger
	user string

	// uploadID is the open upload session, cancelled if the task ends.
	uploadID string
}

func (s *Server) handleClient(ctx context.Context, nc net.Conn) {
	t := &clientTask{
		svc:  s.svc,
		conn: wire.NewConn(nc, s.svc.MaxFrame),
		log:  s.logger.With("remote", nc.RemoteAddr().String()),
	}

	defer func() {
		if t.uploadID != "" {
			t.svc.Uploads.Cancel(t.uploadID)
			t.log.Info(ctx, "upload cancelled by disconnect", "session", t.uploadID)
		}
		if t.user != "" {
			t.svc.Sessions.Logout(t.user)
			t.log.Info(ctx, "user logged out")
		}
	}()

	if err := t.login(ctx); err != nil {
		t.log.Debug(ctx, "login ended", "error", err)
		return
	}

	err := t.menuLoop(ctx)
	if err != nil && !errors.Is(err, errLogout) {
		t.log.Debug(ctx, "connection ended", "error", err)
	}
}

func (t *clientTask) send(m *wire.Message) error {
	return t.conn.Send(m)
}

func (t *clientTask) sendError(text string) error {
	return t.send(&wire.Message{Kind: wire.KindError, Text: text})
}

func (t *clientTask) sendInfo(text string) error {
	return t.send(&wire.Message{Kind: wire.KindInfo, Text: text})
}

// expect reads one message of the wanted kinds. On a protocol violation the
// client is told so and ok is false; err is set only for transport errors.
func (t *clientTask) expect(ctx context.Context, kinds ...wire.Kind) (m *wire.Message, ok bool, err error) {
	m, err = t.conn.Expect(kinds...)
	if err == nil {
		return m, true, nil
	}
	if errors.Is(err, common.ErrProtocolViolation) {
		t.log.Warn(ctx, "protocol violation", "error", err)
		return nil, false, t.sendError(err.Error())
	}
	return nil, false, err
}

func (t *clientTask) login(ctx context.Context) error {
	if err := t.send(&wire.Message{Kind: wire.KindPrompt, Text: "Enter your username: "}); err != nil {
		return err
	}

	m, err := t.conn.Expect(wire.KindText)
	if err != nil {
		if errors.Is(err, common.ErrProtocolViolation) {
			_ = t.send(&wire.Message{Kind: wire.KindLoginFailed, Text: err.Error()})
		}
		return err
	}

	username := strings.TrimSpace(m.Text)
	first, err := t.svc.Sessions.Login(ctx, username)
	if err != nil {
		t.countLogin("rejected")
		t.log.Warn(ctx, "login rejected", "username", username, "error", err)

		text := err.Error()
		if errors.Is(err, common.ErrAlreadyOnline) {
			text = "User already logged in. Connection terminated."
		}
		_ = t.send(&wire.Message{Kind: wire.KindLoginFailed, Text: text})
		return err
	}

	t.user = username
	t.log = t.log.With("username", username)
	t.countLogin("ok")
	t.log.Info(ctx, "user logged in", "first_login", first)

	unread, err := t.svc.Inbox.UnreadCount(ctx, username)
	if err != nil {
		t.log.Error(ctx, "unread count failed", "error", err)
	}

	welcome := fmt.Sprintf("Welcome %s!", username)
	if unread > 0 {
		welcome += fmt.Sprintf(" You have %d unread message(s).", unread)
	}

	return t.send(&wire.Message{Kind: wire.KindLoginOK, Text: welcome, Num: int64(unread), Arg: username})
}

func (t *clientTask) countLogin(result string) {
	if t.svc.Metrics != nil {
		t.svc.Metrics.Logins.WithLabelValues(result).Inc()
	}
}

func (t *clientTask) menuLoop(ctx context.Context) error {
	for {
		if err := t.send(&wire.Message{Kind: wire.KindMenu, Text: menuText, Items: menuItems}); err != nil {
			return err
		}

		m, ok, err := t.expect(ctx, wire.KindSelect)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if err := t.dispatch(ctx, m); err != nil {
			return err
		}
	}
}

func (t *clientTask) dispatch(ctx context.Context, m *wire.Message) error {
	switch strings.ToLower(strings.TrimSpace(m.Text)) {
	case SelectUsers:
		return t.viewUsers()
	case SelectMyFiles:
		return t.viewMyFiles()
	case SelectPublicFiles:
		return t.viewPublicFiles()
	case SelectUpload:
		return t.upload(ctx)
	case SelectDownload:
		return t.download(ctx)
	case SelectRequest:
		return t.request(ctx)
	case SelectUnread:
		return t.viewUnread(ctx)
	case SelectRead:
		return t.viewRead(ctx)
	case SelectHistory:
		return t.viewHistory(ctx, m.Arg)
	case SelectLogout:
		_ = t.sendInfo("Logging out...")
		return errLogout
	default:
		return t.sendError("Invalid choice. Please try again.")
	}
}
