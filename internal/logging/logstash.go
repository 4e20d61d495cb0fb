package logging

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// LogstashSink mirrors log lines to a Logstash TCP input. Writes never dial:
// while disconnected, lines are dropped and a single background goroutine
// reconnects, at most once per retry window. It is safe for concurrent use.
type LogstashSink struct {
	addr          string
	dialTimeout   time.Duration
	writeTimeout  time.Duration
	retryInterval time.Duration

	mu        sync.Mutex
	conn      net.Conn
	nextRetry time.Time
	dialing   bool
	closed    bool
}

type SinkOption func(*LogstashSink)

func WithDialTimeout(d time.Duration) SinkOption {
	return func(s *LogstashSink) { s.dialTimeout = d }
}

func WithWriteTimeout(d time.Duration) SinkOption {
	return func(s *LogstashSink) { s.writeTimeout = d }
}

// WithRetryInterval sets the cool-down after a failed connect or write.
func WithRetryInterval(d time.Duration) SinkOption {
	return func(s *LogstashSink) { s.retryInterval = d }
}

func NewLogstashSink(addr string, opts ...SinkOption) (*LogstashSink, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("logstash: empty address")
	}
	s := &LogstashSink{
		addr:          addr,
		dialTimeout:   2 * time.Second,
		writeTimeout:  time.Second,
		retryInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *LogstashSink) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	line := make([]byte, len(p), len(p)+1)
	copy(line, p)
	if line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.ErrClosedPipe
	}
	if s.conn == nil {
		s.reconnectLocked()
		return len(p), nil
	}
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if _, err := s.conn.Write(line); err != nil {
		s.dropLocked()
		s.backoffLocked()
	}
	return len(p), nil
}

// Sync satisfies zapcore.WriteSyncer. Lines are written unbuffered.
func (s *LogstashSink) Sync() error { return nil }

func (s *LogstashSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.dropLocked()
}

// reconnectLocked starts a background dial unless one is running or the
// retry window has not elapsed.
func (s *LogstashSink) reconnectLocked() {
	if s.dialing || (!s.nextRetry.IsZero() && time.Now().Before(s.nextRetry)) {
		return
	}
	s.dialing = true
	go s.dial()
}

func (s *LogstashSink) dial() {
	conn, err := net.DialTimeout("tcp", s.addr, s.dialTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialing = false
	switch {
	case err != nil:
		s.backoffLocked()
	case s.closed:
		_ = conn.Close()
	default:
		s.conn = conn
		s.nextRetry = time.Time{}
	}
}

func (s *LogstashSink) dropLocked() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *LogstashSink) backoffLocked() {
	if s.retryInterval <= 0 {
		s.nextRetry = time.Time{}
		return
	}
	s.nextRetry = time.Now().Add(s.retryInterval)
}
