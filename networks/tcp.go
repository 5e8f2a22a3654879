package networks

import (
	"cmp"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/reusee/aggr/aggregates"
	"github.com/reusee/aggr/codecs"
	"github.com/reusee/aggr/envelopes"
	"github.com/reusee/aggr/logs"
	"github.com/reusee/aggr/nets"
	"golang.org/x/sync/errgroup"
)

// frame is the unit written on a connection, one encoded message each.
type frame struct {
	Data []byte
}

// TCP connects one device to its peers.
// Every peer gets the messages meant for it over an outgoing connection,
// and the messages of the peers arrive on the listener.
// Messages from senders that are not peers are ignored, so the peers are the neighbors.
type TCP[ID cmp.Ordered] struct {
	id       ID
	codec    codecs.Codec[ID]
	listener net.Listener
	dialer   nets.Dialer
	logger   logs.Logger

	// MaxAge drops messages older than it from what Receive returns. Zero keeps messages until replaced.
	MaxAge time.Duration

	mu       sync.Mutex
	peers    map[ID]string
	conns    map[ID]*peerConn
	inbox    map[ID]received[ID]
	accepted map[net.Conn]struct{}
	closed   bool
}

type peerConn struct {
	conn    net.Conn
	encoder *gob.Encoder
}

type received[ID cmp.Ordered] struct {
	msg envelopes.Message[ID]
	at  time.Time
}

var _ aggregates.Network[int] = new(TCP[int])

func NewTCP[ID cmp.Ordered](
	id ID,
	codec codecs.Codec[ID],
	listener net.Listener,
	dialer nets.Dialer,
	logger logs.Logger,
) *TCP[ID] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TCP[ID]{
		id:       id,
		codec:    codec,
		listener: listener,
		dialer:   dialer,
		logger:   logger,
		peers:    make(map[ID]string),
		conns:    make(map[ID]*peerConn),
		inbox:    make(map[ID]received[ID]),
		accepted: make(map[net.Conn]struct{}),
	}
}

// AddPeer sets the address of a neighbor.
func (t *TCP[ID]) AddPeer(id ID, addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peers[id] = addr
	if conn, ok := t.conns[id]; ok {
		conn.conn.Close()
		delete(t.conns, id)
	}
}

// RemovePeer stops sending to id and forgets what it sent.
func (t *TCP[ID]) RemovePeer(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peers, id)
	delete(t.inbox, id)
	if conn, ok := t.conns[id]; ok {
		conn.conn.Close()
		delete(t.conns, id)
	}
}

func (t *TCP[ID]) ID() ID {
	return t.id
}

func (t *TCP[ID]) Addr() net.Addr {
	return t.listener.Addr()
}

// Serve accepts peer connections until ctx is done or the network is closed.
func (t *TCP[ID]) Serve(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	done := make(chan struct{})
	group.Go(func() error {
		select {
		case <-ctx.Done():
			t.Close()
		case <-done:
		}
		return nil
	})

	group.Go(func() error {
		defer close(done)
		for {
			conn, err := t.listener.Accept()
			if err != nil {
				if t.isClosed() || ctx.Err() != nil {
					return nil
				}
				t.Close()
				return fmt.Errorf("accept: %w", err)
			}
			t.mu.Lock()
			if t.closed {
				t.mu.Unlock()
				conn.Close()
				return nil
			}
			t.accepted[conn] = struct{}{}
			t.mu.Unlock()

			group.Go(func() error {
				t.handle(ctx, conn)
				return nil
			})
		}
	})

	return group.Wait()
}

func (t *TCP[ID]) handle(ctx context.Context, conn net.Conn) {
	defer func() {
		conn.Close()
		t.mu.Lock()
		delete(t.accepted, conn)
		t.mu.Unlock()
	}()

	decoder := gob.NewDecoder(conn)
	for {
		var f frame
		if err := decoder.Decode(&f); err != nil {
			if !errors.Is(err, io.EOF) && !t.isClosed() {
				t.logger.WarnContext(ctx, "read frame",
					"remote", conn.RemoteAddr().String(),
					"error", err,
				)
			}
			return
		}
		msg, err := t.codec.DecodeMessage(f.Data)
		if err != nil {
			// a message failing the decode policy is dropped as a whole
			t.logger.WarnContext(ctx, "drop message",
				"remote", conn.RemoteAddr().String(),
				"error", err,
			)
			continue
		}
		t.mu.Lock()
		if _, ok := t.peers[msg.Sender]; !ok {
			t.mu.Unlock()
			t.logger.DebugContext(ctx, "ignore message from non-peer",
				"sender", msg.Sender,
			)
			continue
		}
		t.inbox[msg.Sender] = received[ID]{
			msg: msg,
			at:  time.Now(),
		}
		t.mu.Unlock()
	}
}

func (t *TCP[ID]) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Close stops accepting and closes every connection.
func (t *TCP[ID]) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	err := t.listener.Close()
	for id, conn := range t.conns {
		conn.conn.Close()
		delete(t.conns, id)
	}
	for conn := range t.accepted {
		conn.Close()
	}
	return err
}

func (t *TCP[ID]) connTo(ctx context.Context, id ID, addr string) (*peerConn, error) {
	t.mu.Lock()
	conn, ok := t.conns[id]
	t.mu.Unlock()
	if ok {
		return conn, nil
	}

	c, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	conn = &peerConn{
		conn:    c,
		encoder: gob.NewEncoder(c),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		c.Close()
		return nil, net.ErrClosed
	}
	if existing, ok := t.conns[id]; ok {
		c.Close()
		return existing, nil
	}
	t.conns[id] = conn
	return conn, nil
}

func (t *TCP[ID]) dropConn(id ID, conn *peerConn) {
	conn.conn.Close()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conns[id] == conn {
		delete(t.conns, id)
	}
}

// Send encodes the message of every peer before writing any,
// so an unsupported payload fails the send as a whole.
// Unreachable peers are logged and skipped, they get the next round's message.
func (t *TCP[ID]) Send(ctx context.Context, from ID, outbound *envelopes.Envelope[ID]) error {
	t.mu.Lock()
	peers := make(map[ID]string, len(t.peers))
	for id, addr := range t.peers {
		peers[id] = addr
	}
	t.mu.Unlock()

	frames := make(map[ID]frame, len(peers))
	for id := range peers {
		data, err := t.codec.EncodeMessage(outbound.PrepareMessageFor(id))
		if err != nil {
			return fmt.Errorf("send to %v: %w", id, err)
		}
		frames[id] = frame{
			Data: data,
		}
	}

	for id, f := range frames {
		conn, err := t.connTo(ctx, id, peers[id])
		if err != nil {
			t.logger.WarnContext(ctx, "dial peer",
				"peer", id,
				"addr", peers[id],
				"error", err,
			)
			continue
		}
		if err := conn.encoder.Encode(f); err != nil {
			t.logger.WarnContext(ctx, "write frame",
				"peer", id,
				"error", err,
			)
			t.dropConn(id, conn)
			continue
		}
	}
	return nil
}

// Receive returns the last message of every peer. It never blocks.
func (t *TCP[ID]) Receive(ctx context.Context) (envelopes.Inbound[ID], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	inbound := make(envelopes.Inbound[ID], len(t.inbox))
	for sender, r := range t.inbox {
		if t.MaxAge > 0 && now.Sub(r.at) > t.MaxAge {
			delete(t.inbox, sender)
			continue
		}
		inbound.Add(r.msg)
	}
	return inbound, nil
}
