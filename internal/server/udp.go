package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skypro1111/rot13-echo-service/internal/config"
	"github.com/skypro1111/rot13-echo-service/internal/metrics"
	"github.com/skypro1111/rot13-echo-service/internal/rot13"
)

// State is the lifecycle state of a UDPServer
type State int32

const (
	StateIdle State = iota
	StateBound
	StateServing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBound:
		return "bound"
	case StateServing:
		return "serving"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// ErrNotBound is returned by Serve when Start has not bound a socket
var ErrNotBound = errors.New("udp server is not bound")

// BindError reports a failure to resolve or bind the listen address.
// It is fatal: the server never retries a bind.
type BindError struct {
	Address string
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind UDP socket on %s: %v", e.Address, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// packetConn is the subset of *net.UDPConn the echo loop uses
type packetConn interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
	LocalAddr() net.Addr
	Close() error
}

// UDPServer receives datagrams, rotates their letters with ROT13 and sends
// the result back to the sender. Datagrams are handled one at a time on the
// goroutine that calls Serve.
type UDPServer struct {
	conn    packetConn
	config  *config.ServerConfig
	logger  *slog.Logger
	metrics *metrics.Metrics

	state     atomic.Int32
	closeOnce sync.Once

	// Counters, read concurrently by the HTTP API
	packetsReceived uint64
	repliesSent     uint64
	receiveErrors   uint64
	sendErrors      uint64
	bytesReceived   uint64
	bytesSent       uint64
	mu              sync.RWMutex
}

// NewUDPServer creates a new UDP server instance
func NewUDPServer(cfg *config.ServerConfig, logger *slog.Logger, m *metrics.Metrics) *UDPServer {
	return &UDPServer{
		config:  cfg,
		logger:  logger,
		metrics: m,
	}
}

// Start binds the UDP socket. Any failure is returned as *BindError.
func (s *UDPServer) Start() error {
	if State(s.state.Load()) != StateIdle {
		return fmt.Errorf("udp server already started (state %s)", s.State())
	}

	address := s.config.Address()

	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return &BindError{Address: address, Err: err}
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return &BindError{Address: address, Err: err}
	}

	if s.config.ReadBufferSize > 0 {
		if err := conn.SetReadBuffer(s.config.ReadBufferSize); err != nil {
			s.logger.Warn("Failed to set UDP read buffer size",
				slog.Int("read_buffer_size", s.config.ReadBufferSize),
				slog.String("error", err.Error()),
			)
		}
	}

	s.conn = conn
	s.state.Store(int32(StateBound))

	local := conn.LocalAddr().(*net.UDPAddr)
	s.logger.Info("UDP ROT13 server started",
		slog.String("address", local.String()),
		slog.Int("port", local.Port),
		slog.Int("max_datagram_size", s.config.MaxDatagramSize),
		slog.String("error_policy", s.config.ErrorPolicy),
	)

	return nil
}

// Addr returns the bound local address, or nil before Start
func (s *UDPServer) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// State returns the current lifecycle state
func (s *UDPServer) State() State {
	return State(s.state.Load())
}

// Serve runs the receive/transform/send loop until ctx is cancelled or Stop
// is called, in which case it returns nil. With the "fail" error policy the
// first receive or send error closes the socket and is returned.
func (s *UDPServer) Serve(ctx context.Context) error {
	if s.conn == nil {
		return ErrNotBound
	}
	if !s.state.CompareAndSwap(int32(StateBound), int32(StateServing)) {
		return fmt.Errorf("udp server cannot serve from state %s", s.State())
	}

	// Closing the socket is the only way to unblock ReadFromUDP
	stop := context.AfterFunc(ctx, s.closeConn)
	defer stop()

	buffer := make([]byte, s.config.MaxDatagramSize)

	for {
		n, remoteAddr, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			if s.closed(ctx, err) {
				s.logger.Info("Receive loop stopped")
				return nil
			}

			s.mu.Lock()
			s.receiveErrors++
			s.mu.Unlock()
			s.metrics.RecordReceiveError()

			s.logger.Error("Failed to read UDP datagram", slog.String("error", err.Error()))

			if s.config.FailFast() {
				s.closeConn()
				return fmt.Errorf("receive datagram: %w", err)
			}
			continue
		}

		if err := s.handleDatagram(buffer[:n], remoteAddr); err != nil && s.config.FailFast() {
			s.closeConn()
			return err
		}
	}
}

// handleDatagram rotates payload in place and replies to remoteAddr
func (s *UDPServer) handleDatagram(payload []byte, remoteAddr *net.UDPAddr) error {
	startTime := time.Now()

	s.mu.Lock()
	s.packetsReceived++
	s.bytesReceived += uint64(len(payload))
	s.mu.Unlock()
	s.metrics.RecordDatagramReceived(len(payload))

	// Payload is untrusted; both slog handlers escape control bytes in values
	s.logger.Info("Datagram received",
		slog.String("remote_ip", remoteAddr.IP.String()),
		slog.Int("remote_port", remoteAddr.Port),
		slog.Int("size", len(payload)),
		slog.String("payload", string(payload)),
	)

	rot13.Transform(payload, payload)

	n, err := s.conn.WriteToUDP(payload, remoteAddr)
	if err != nil {
		s.mu.Lock()
		s.sendErrors++
		s.mu.Unlock()
		s.metrics.RecordSendError()

		s.logger.Error("Failed to send ROT13 reply",
			slog.String("remote_addr", remoteAddr.String()),
			slog.Int("size", len(payload)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("send reply to %s: %w", remoteAddr, err)
	}

	s.mu.Lock()
	s.repliesSent++
	s.bytesSent += uint64(n)
	s.mu.Unlock()
	s.metrics.RecordReplySent(n, time.Since(startTime).Seconds())

	s.logger.Debug("Reply sent",
		slog.String("remote_addr", remoteAddr.String()),
		slog.Int("size", n),
	)

	return nil
}

// Stop closes the socket, which makes a running Serve return nil
func (s *UDPServer) Stop() error {
	s.logger.Info("Stopping UDP server...")

	var err error
	if s.conn != nil {
		err = s.closeConnErr()
	}
	s.state.Store(int32(StateStopped))

	stats := s.GetStatistics()
	s.logger.Info("UDP server stopped",
		slog.Uint64("packets_received", stats.PacketsReceived),
		slog.Uint64("replies_sent", stats.RepliesSent),
		slog.Uint64("receive_errors", stats.ReceiveErrors),
		slog.Uint64("send_errors", stats.SendErrors),
	)

	return err
}

func (s *UDPServer) closeConn() {
	if err := s.closeConnErr(); err != nil {
		s.logger.Warn("Error closing UDP connection", slog.String("error", err.Error()))
	}
}

func (s *UDPServer) closeConnErr() error {
	var err error
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateStopped))
		err = s.conn.Close()
	})
	return err
}

// closed reports whether a read error was caused by shutdown
func (s *UDPServer) closed(ctx context.Context, err error) bool {
	return errors.Is(err, net.ErrClosed) || ctx.Err() != nil || s.State() == StateStopped
}

// GetStatistics returns current server statistics
func (s *UDPServer) GetStatistics() ServerStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ServerStatistics{
		PacketsReceived: s.packetsReceived,
		RepliesSent:     s.repliesSent,
		ReceiveErrors:   s.receiveErrors,
		SendErrors:      s.sendErrors,
		BytesReceived:   s.bytesReceived,
		BytesSent:       s.bytesSent,
	}
}

// ServerStatistics represents server counters
type ServerStatistics struct {
	PacketsReceived uint64 `json:"packets_received"`
	RepliesSent     uint64 `json:"replies_sent"`
	ReceiveErrors   uint64 `json:"receive_errors"`
	SendErrors      uint64 `json:"send_errors"`
	BytesReceived   uint64 `json:"bytes_received"`
	BytesSent       uint64 `json:"bytes_sent"`
}
