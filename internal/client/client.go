package client

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"slices"
	"time"

	"github.com/dmitrijs2005/gophshare/internal/wire"
	"golang.org/x/crypto/blake2b"
)

// Menu selectors understood by the server.
const (
	selUsers       = "users"
	selMyFiles     = "my-files"
	selPublicFiles = "public-files"
	selUpload      = "upload"
	selDownload    = "download"
	selRequest     = "request"
	selUnread      = "unread"
	selRead        = "read"
	selHistory     = "history"
	selLogout      = "logout"
)

type Client struct {
	nc   net.Conn
	conn *wire.Conn
	user string
	menu []string
}

// Dial connects to the main port. maxFrame 0 uses the wire default.
func Dial(ctx context.Context, addr string, maxFrame int) (*Client, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{nc: nc, conn: wire.NewConn(nc, maxFrame)}, nil
}

func (c *Client) Close() error {
	return c.nc.Close()
}

// User returns the logged-in username.
func (c *Client) User() string { return c.user }

// Menu returns the selectors of the last menu received.
func (c *Client) Menu() []string { return c.menu }

// bind makes blocking socket calls fail once ctx ends.
func (c *Client) bind(ctx context.Context) func() {
	return bindConn(ctx, c.nc)
}

func bindConn(ctx context.Context, nc net.Conn) func() {
	if d, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(d)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = nc.SetDeadline(time.Now())
	})
	return func() {
		stop()
		_ = nc.SetDeadline(time.Time{})
	}
}

func (c *Client) send(m *wire.Message) error {
	return c.conn.Send(m)
}

// recv reads the next message; an Error message becomes *ServerError.
func (c *Client) recv(want ...wire.Kind) (*wire.Message, error) {
	m, err := c.conn.Recv()
	if err != nil {
		return nil, err
	}
	if m.Kind == wire.KindError && !slices.Contains(want, wire.KindError) {
		return m, &ServerError{Text: m.Text}
	}
	if len(want) > 0 && !slices.Contains(want, m.Kind) {
		return m, fmt.Errorf("%w: %s", ErrUnexpected, m.Kind)
	}
	return m, nil
}

// awaitMenu consumes the menu that ends every operation.
func (c *Client) awaitMenu() error {
	m, err := c.recv(wire.KindMenu)
	if err != nil {
		return err
	}
	c.menu = m.Items
	return nil
}

// finish returns opErr after reading the trailing menu. A ServerError is
// a clean end of the operation; anything else leaves the stream unknown.
func (c *Client) finish(opErr error) error {
	var se *ServerError
	if opErr != nil && !errors.As(opErr, &se) && !errors.Is(opErr, ErrCancelled) && !errors.Is(opErr, ErrChecksumMismatch) {
		return opErr
	}
	if err := c.awaitMenu(); err != nil {
		return errors.Join(opErr, err)
	}
	return opErr
}

type LoginResult struct {
	Welcome string
	Unread  int
}

// Login answers the username prompt. On refusal the server closes the
// connection and the error wraps ErrLoginFailed.
func (c *Client) Login(ctx context.Context, username string) (LoginResult, error) {
	defer c.bind(ctx)()

	if _, err := c.recv(wire.KindPrompt); err != nil {
		return LoginResult{}, err
	}
	if err := c.send(&wire.Message{Kind: wire.KindText, Text: username}); err != nil {
		return LoginResult{}, err
	}

	m, err := c.recv(wire.KindLoginOK, wire.KindLoginFailed)
	if err != nil {
		return LoginResult{}, err
	}
	if m.Kind == wire.KindLoginFailed {
		return LoginResult{}, fmt.Errorf("%w: %s", ErrLoginFailed, m.Text)
	}
	c.user = username

	if err := c.awaitMenu(); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Welcome: m.Text, Unread: int(m.Num)}, nil
}

func (c *Client) list(ctx context.Context, selector, arg string) ([]string, error) {
	defer c.bind(ctx)()

	if err := c.send(&wire.Message{Kind: wire.KindSelect, Text: selector, Arg: arg}); err != nil {
		return nil, err
	}
	m, err := c.recv(wire.KindList)
	if err != nil {
		return nil, c.finish(err)
	}
	return m.Items, c.finish(nil)
}

// Users lists every registered user as "name [ONLINE]" or "name [OFFLINE]".
func (c *Client) Users(ctx context.Context) ([]string, error) {
	return c.list(ctx, selUsers, "")
}

func (c *Client) MyFiles(ctx context.Context) ([]string, error) {
	return c.list(ctx, selMyFiles, "")
}

func (c *Client) PublicFiles(ctx context.Context) ([]string, error) {
	return c.list(ctx, selPublicFiles, "")
}

// Unread returns the unread inbox entries; the server marks them read.
func (c *Client) Unread(ctx context.Context) ([]string, error) {
	return c.list(ctx, selUnread, "")
}

func (c *Client) Read(ctx context.Context) ([]string, error) {
	return c.list(ctx, selRead, "")
}

// History returns activity entries, all kinds when kind is empty.
func (c *Client) History(ctx context.Context, kind string) ([]string, error) {
	return c.list(ctx, selHistory, kind)
}

// Select sends a raw menu choice and returns the server's reply text.
func (c *Client) Select(ctx context.Context, selector string) (string, error) {
	defer c.bind(ctx)()

	if err := c.send(&wire.Message{Kind: wire.KindSelect, Text: selector}); err != nil {
		return "", err
	}
	m, err := c.recv()
	if err != nil {
		return "", c.finish(err)
	}
	return m.Text, c.finish(nil)
}

// Request submits a file request to recipient, or to everyone for "ALL".
// It returns the request id.
func (c *Client) Request(ctx context.Context, description, recipient string) (string, error) {
	defer c.bind(ctx)()

	if err := c.send(&wire.Message{Kind: wire.KindSelect, Text: selRequest}); err != nil {
		return "", err
	}
	for _, answer := range []string{description, recipient} {
		if _, err := c.recv(wire.KindPrompt); err != nil {
			return "", c.finish(err)
		}
		if err := c.send(&wire.Message{Kind: wire.KindText, Text: answer}); err != nil {
			return "", err
		}
	}

	m, err := c.recv(wire.KindSuccess)
	if err != nil {
		return "", c.finish(err)
	}
	return m.Arg, c.finish(nil)
}

// Logout ends the session; the connection is closed afterwards.
func (c *Client) Logout(ctx context.Context) error {
	defer c.Close()
	defer c.bind(ctx)()

	if err := c.send(&wire.Message{Kind: wire.KindSelect, Text: selLogout}); err != nil {
		return err
	}
	_, err := c.recv(wire.KindInfo)
	return err
}

func checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
