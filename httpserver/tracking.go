package httpserver

import (
	"context"
	"net"
	"sync"
)

// trackedListener counts the connections it accepts, and how many are open per
// remote host, so the server can report them as gauges.
type trackedListener struct {
	net.Listener

	name string

	mu       sync.RWMutex
	accepted int
	active   int
	remotes  map[string]int
}

func (l *trackedListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return conn, err
	}
	host := remoteHost(conn.RemoteAddr())
	l.opened(host)
	return &trackedConn{Conn: conn, host: host, l: l}, nil
}

// MetricName satisfies system.MetricProducer
func (l *trackedListener) MetricName() string {
	return l.name + "-listener"
}

// Gauges satisfies system.MetricProducer
func (l *trackedListener) Gauges(_ context.Context) map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// min stays zero when nothing is connected
	var min, max int
	first := true
	for _, n := range l.remotes {
		if first || n < min {
			min = n
		}
		if n > max {
			max = n
		}
		first = false
	}

	return map[string]float64{
		"number_of_remotes":          float64(len(l.remotes)),
		"total_connections":          float64(l.accepted),
		"active_connections":         float64(l.active),
		"max_connections_per_remote": float64(max),
		"min_connections_per_remote": float64(min),
	}
}

func (l *trackedListener) opened(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.remotes == nil {
		l.remotes = map[string]int{}
	}
	l.accepted++
	l.active++
	l.remotes[host]++
}

func (l *trackedListener) closed(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active--
	l.remotes[host]--
	if l.remotes[host] <= 0 {
		delete(l.remotes, host)
	}
}

// remoteHost drops the port, so connections are grouped per client host.
// Unix sockets have no port and are grouped by address.
func remoteHost(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

type trackedConn struct {
	net.Conn

	host string
	once sync.Once
	l    *trackedListener
}

// Close may be called more than once by net/http, the connection is only untracked once.
func (c *trackedConn) Close() error {
	c.once.Do(func() {
		c.l.closed(c.host)
	})
	return c.Conn.Close()
}
