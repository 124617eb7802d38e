package net

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

const bufSize = 64 * 1024

var (
	errNotAdvertisable = errors.New("local bind address is not advertisable")
	errNotTCP          = errors.New("local address is not a TCP address")
)

// TCPTransport exchanges messages over TCP. Each connection carries a
// sequence of msgpack encoded DeliverRequests, each followed by the
// recipient's DeliverResponse. Outbound connections are pooled per target.
type TCPTransport struct {
	listener  *net.TCPListener
	advertise string
	timeout   time.Duration

	poolLock sync.Mutex
	pool     map[string][]*tcpConn
	maxPool  int

	consumeCh chan *Delivery

	shutdownOnce sync.Once
	shutdownCh   chan struct{}

	logger *logrus.Entry
}

type tcpConn struct {
	target string
	conn   net.Conn
	w      *bufio.Writer
	enc    *codec.Encoder
	dec    *codec.Decoder
}

func newTCPConn(target string, conn net.Conn) *tcpConn {
	w := bufio.NewWriterSize(conn, bufSize)
	return &tcpConn{
		target: target,
		conn:   conn,
		w:      w,
		enc:    codec.NewEncoder(w, msgpackHandle),
		dec:    codec.NewDecoder(bufio.NewReaderSize(conn, bufSize), msgpackHandle),
	}
}

func (c *tcpConn) roundTrip(req *DeliverRequest, resp *DeliverResponse) error {
	if err := c.enc.Encode(req); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return err
	}
	return c.dec.Decode(resp)
}

// NewTCPTransport binds bindAddr and returns a transport known to other nodes
// as advertise, or as the bound address if advertise is empty. maxPool is the
// number of idle connections kept per target and timeout the I/O deadline of
// a delivery.
func NewTCPTransport(
	bindAddr string,
	advertise string,
	maxPool int,
	timeout time.Duration,
	logger *logrus.Entry,
) (*TCPTransport, error) {

	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	list, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}

	advertised, err := advertiseAddr(list, advertise)
	if err != nil {
		list.Close()
		return nil, err
	}

	return &TCPTransport{
		listener:   list.(*net.TCPListener),
		advertise:  advertised,
		timeout:    timeout,
		pool:       make(map[string][]*tcpConn),
		maxPool:    maxPool,
		consumeCh:  make(chan *Delivery),
		shutdownCh: make(chan struct{}),
		logger:     logger.WithField("transport", "tcp"),
	}, nil
}

// advertiseAddr checks that the address other nodes will dial is a concrete
// TCP address.
func advertiseAddr(list net.Listener, advertise string) (string, error) {
	addr := list.Addr()
	if advertise != "" {
		resolved, err := net.ResolveTCPAddr("tcp", advertise)
		if err != nil {
			return "", err
		}
		addr = resolved
	}

	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return "", errNotTCP
	}
	if tcpAddr.IP.IsUnspecified() {
		return "", errNotAdvertisable
	}

	if advertise != "" {
		return advertise, nil
	}
	return tcpAddr.String(), nil
}

// Consumer implements the Transport interface.
func (t *TCPTransport) Consumer() <-chan *Delivery {
	return t.consumeCh
}

// LocalAddr implements the Transport interface.
func (t *TCPTransport) LocalAddr() string {
	return t.listener.Addr().String()
}

// AdvertiseAddr implements the Transport interface.
func (t *TCPTransport) AdvertiseAddr() string {
	return t.advertise
}

func (t *TCPTransport) isShutdown() bool {
	select {
	case <-t.shutdownCh:
		return true
	default:
		return false
	}
}

// Deliver implements the Transport interface.
func (t *TCPTransport) Deliver(target string, req *DeliverRequest, resp *DeliverResponse) error {
	if t.isShutdown() {
		return ErrTransportShutdown
	}

	c, err := t.acquire(target)
	if err != nil {
		return err
	}

	if t.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(t.timeout))
	}

	if err := c.roundTrip(req, resp); err != nil {
		c.conn.Close()
		return err
	}

	t.release(c)
	return nil
}

func (t *TCPTransport) acquire(target string) (*tcpConn, error) {
	t.poolLock.Lock()
	if conns := t.pool[target]; len(conns) > 0 {
		c := conns[len(conns)-1]
		t.pool[target] = conns[:len(conns)-1]
		t.poolLock.Unlock()
		return c, nil
	}
	t.poolLock.Unlock()

	conn, err := net.DialTimeout("tcp", target, t.timeout)
	if err != nil {
		return nil, err
	}
	return newTCPConn(target, conn), nil
}

func (t *TCPTransport) release(c *tcpConn) {
	t.poolLock.Lock()
	defer t.poolLock.Unlock()

	if t.isShutdown() || len(t.pool[c.target]) >= t.maxPool {
		c.conn.Close()
		return
	}
	t.pool[c.target] = append(t.pool[c.target], c)
}

// Listen accepts connections until the transport is closed.
func (t *TCPTransport) Listen() {
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if t.isShutdown() {
				return
			}
			t.logger.WithError(err).Error("Failed to accept connection")
			continue
		}

		t.logger.WithField("from", conn.RemoteAddr()).Debug("Accepted connection")

		go t.serve(conn)
	}
}

// serve answers the DeliverRequests of one inbound connection in order.
func (t *TCPTransport) serve(conn net.Conn) {
	defer conn.Close()

	c := newTCPConn(conn.RemoteAddr().String(), conn)

	for {
		var req DeliverRequest
		if err := c.dec.Decode(&req); err != nil {
			if err != io.EOF && !t.isShutdown() {
				t.logger.WithError(err).Error("Failed to decode DeliverRequest")
			}
			return
		}

		resp, err := handOff(t.consumeCh, t.shutdownCh, 0, &req)
		if err != nil {
			return
		}

		if !resp.Ack {
			t.logger.WithFields(logrus.Fields{
				"from":   req.From,
				"kind":   req.Kind,
				"route":  req.Route,
				"reason": resp.Reason,
			}).Warn("Refused message")
		}

		if err := c.enc.Encode(&resp); err != nil {
			t.logger.WithError(err).Error("Failed to encode DeliverResponse")
			return
		}
		if err := c.w.Flush(); err != nil {
			t.logger.WithError(err).Error("Failed to flush DeliverResponse")
			return
		}
	}
}

// Close stops accepting connections and closes the pooled ones.
func (t *TCPTransport) Close() error {
	var err error
	t.shutdownOnce.Do(func() {
		close(t.shutdownCh)
		err = t.listener.Close()

		t.poolLock.Lock()
		for _, conns := range t.pool {
			for _, c := range conns {
				c.conn.Close()
			}
		}
		t.pool = make(map[string][]*tcpConn)
		t.poolLock.Unlock()
	})
	return err
}
