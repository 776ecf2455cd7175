package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/netfold/relay/internal/registry"
)

// recordingConn captures frames sent to it and can be made to fail.
type recordingConn struct {
	sent    [][]byte
	sendErr error
	closed  bool
}

func (c *recordingConn) Send(ctx context.Context, frame []byte) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, frame)
	return nil
}

func (c *recordingConn) Close() error {
	c.closed = true
	return nil
}

// fakeSender implements Sender without pulling in the session package.
type fakeSender struct {
	sessionID  string
	conn       registry.Conn
	id         string
	identified bool
}

func (s *fakeSender) SessionID() string { return s.sessionID }

func (s *fakeSender) Conn() registry.Conn { return s.conn }

func (s *fakeSender) Current() (string, bool) { return s.id, s.identified }

func (s *fakeSender) Assume(id string) {
	s.id = id
	s.identified = true
}

func newTestDispatcher() (*Dispatcher, registry.Registry) {
	reg := registry.New(registry.PolicyOverwrite, nil)
	return NewDispatcher(reg, nil, nil), reg
}

func TestDispatchRegister(t *testing.T) {
	d, reg := newTestDispatcher()
	conn := &recordingConn{}
	sender := &fakeSender{sessionID: "s1", conn: conn}

	err := d.Dispatch(context.Background(), sender, []byte(`{"type":"register","id":"alice"}`))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if id, ok := sender.Current(); !ok || id != "alice" {
		t.Errorf("sender identity = %q (identified=%v), want alice", id, ok)
	}
	got, ok := reg.Lookup("alice")
	if !ok || got != registry.Conn(conn) {
		t.Error("registry does not map alice to the sender's connection")
	}
	// No acknowledgment goes back to the registering client.
	if len(conn.sent) != 0 {
		t.Errorf("register sent %d frames to the sender, want 0", len(conn.sent))
	}
}

func TestDispatchRegisterMissingID(t *testing.T) {
	d, _ := newTestDispatcher()
	sender := &fakeSender{sessionID: "s1", conn: &recordingConn{}}

	err := d.Dispatch(context.Background(), sender, []byte(`{"type":"register"}`))
	if !errors.Is(err, ErrMissingID) {
		t.Fatalf("Dispatch = %v, want ErrMissingID", err)
	}
	if _, ok := sender.Current(); ok {
		t.Error("failed registration must not identify the sender")
	}
}

func TestDispatchRelay(t *testing.T) {
	d, reg := newTestDispatcher()
	target := &recordingConn{}
	if err := reg.Register("alice", target); err != nil {
		t.Fatalf("Register: %v", err)
	}

	sender := &fakeSender{sessionID: "s2", conn: &recordingConn{}, id: "bob", identified: true}
	raw := []byte(`{"type":"chat","to":"alice","text":"hi"}`)

	if err := d.Dispatch(context.Background(), sender, raw); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if len(target.sent) != 1 {
		t.Fatalf("target received %d frames, want 1", len(target.sent))
	}
	if string(target.sent[0]) != string(raw) {
		t.Errorf("relayed frame = %q, want original bytes %q", target.sent[0], raw)
	}
}

func TestDispatchRelayTypeIrrelevant(t *testing.T) {
	d, reg := newTestDispatcher()
	target := &recordingConn{}
	if err := reg.Register("alice", target); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Any frame with a "to" field is relayed once the sender is
	// identified, whatever its type says.
	sender := &fakeSender{sessionID: "s2", conn: &recordingConn{}, id: "bob", identified: true}
	raw := []byte(`{"type":"anything-at-all","to":"alice"}`)

	if err := d.Dispatch(context.Background(), sender, raw); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(target.sent) != 1 {
		t.Fatalf("target received %d frames, want 1", len(target.sent))
	}
}

func TestDispatchUnknownRecipient(t *testing.T) {
	d, _ := newTestDispatcher()
	sender := &fakeSender{sessionID: "s2", conn: &recordingConn{}, id: "bob", identified: true}

	err := d.Dispatch(context.Background(), sender, []byte(`{"type":"chat","to":"nobody"}`))
	if err != nil {
		t.Fatalf("unknown recipient must be a silent drop, got %v", err)
	}
}

func TestDispatchUnidentifiedSenderDropped(t *testing.T) {
	d, reg := newTestDispatcher()
	target := &recordingConn{}
	if err := reg.Register("alice", target); err != nil {
		t.Fatalf("Register: %v", err)
	}

	sender := &fakeSender{sessionID: "s3", conn: &recordingConn{}}

	err := d.Dispatch(context.Background(), sender, []byte(`{"type":"chat","to":"alice"}`))
	if err != nil {
		t.Fatalf("unidentified sender must be a silent drop, got %v", err)
	}
	if len(target.sent) != 0 {
		t.Errorf("target received %d frames from an unidentified sender, want 0", len(target.sent))
	}
}

func TestDispatchNoTargetDropped(t *testing.T) {
	d, _ := newTestDispatcher()
	sender := &fakeSender{sessionID: "s2", conn: &recordingConn{}, id: "bob", identified: true}

	err := d.Dispatch(context.Background(), sender, []byte(`{"type":"chat","text":"monologue"}`))
	if err != nil {
		t.Fatalf("frame without to must be a no-op, got %v", err)
	}
}

func TestDispatchMalformedFrame(t *testing.T) {
	d, _ := newTestDispatcher()
	sender := &fakeSender{sessionID: "s2", conn: &recordingConn{}}

	err := d.Dispatch(context.Background(), sender, []byte(`not-json`))
	if !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("Dispatch = %v, want ErrMalformedFrame", err)
	}
}

func TestDispatchStaleRecipient(t *testing.T) {
	d, reg := newTestDispatcher()
	dead := &recordingConn{sendErr: errors.New("broken pipe")}
	if err := reg.Register("alice", dead); err != nil {
		t.Fatalf("Register: %v", err)
	}

	sender := &fakeSender{sessionID: "s2", conn: &recordingConn{}, id: "bob", identified: true}

	err := d.Dispatch(context.Background(), sender, []byte(`{"type":"chat","to":"alice"}`))

	var stale *StaleRecipientError
	if !errors.As(err, &stale) {
		t.Fatalf("Dispatch = %v, want StaleRecipientError", err)
	}
	if stale.Recipient != "alice" {
		t.Errorf("Recipient = %q, want alice", stale.Recipient)
	}
	// The failed send is charged to the sender; the stale entry stays
	// until its own session tears down.
	if _, ok := reg.Lookup("alice"); !ok {
		t.Error("stale recipient entry was removed by the relay path")
	}
}

func TestDispatchReregisterUpdatesIdentity(t *testing.T) {
	d, reg := newTestDispatcher()
	conn := &recordingConn{}
	sender := &fakeSender{sessionID: "s1", conn: conn}

	if err := d.Dispatch(context.Background(), sender, []byte(`{"type":"register","id":"alice"}`)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := d.Dispatch(context.Background(), sender, []byte(`{"type":"register","id":"alice2"}`)); err != nil {
		t.Fatalf("second register: %v", err)
	}

	if id, _ := sender.Current(); id != "alice2" {
		t.Errorf("identity = %q, want alice2", id)
	}
	if _, ok := reg.Lookup("alice2"); !ok {
		t.Error("registry missing entry for the new identity")
	}
}
