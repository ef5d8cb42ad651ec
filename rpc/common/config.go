package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds transport-tuning knobs. Transports that
// do not need a given knob (unix, http) simply ignore it. The TCP
// socket knobs (TCPNoDelay through TCPLingerSec) are not applied to
// accepted connections: the base server transport never calls the tcp
// connector's UpgradeConnection.
type ServerTransportConfig struct {
	// BufferSize is the size, in bytes, of the read buffer allocated per
	// connection by transports that frame their own reads (tcp, unix).
	BufferSize uint64

	// MaxWorkersPerConn bounds the number of requests handled
	// concurrently on a single connection (tcp, unix). Values below 1
	// are raised to 1.
	MaxWorkersPerConn int

	TCPNoDelay      bool
	WriteBufferSize int
	ReadBufferSize  int
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// ServerConfig holds all configuration parameters for a store RPC
// server, independent of the concrete transport (tcp, unix, http)
// bound to it.
type ServerConfig struct {
	// Endpoint is the listener address: "host:port" for tcp/http,
	// a filesystem path for unix.
	Endpoint string

	// TimeoutSecond is the read and write deadline the tcp/unix
	// transports set on a connection before each frame; a connection
	// idle for longer is closed. The http transport ignores it. 0
	// disables the deadline.
	TimeoutSecond int64

	// LogLevel controls the verbosity of the server's logger.
	LogLevel string

	// Transport carries knobs specific to whichever transport
	// implementation is actually bound to Endpoint.
	Transport ServerTransportConfig
}

// String returns a formatted string representation of the configuration.
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Transport")
	addField("Buffer Size", strconv.FormatUint(c.Transport.BufferSize, 10))
	addField("Max Workers Per Conn", strconv.Itoa(c.Transport.MaxWorkersPerConn))
	addField("TCP No Delay", fmt.Sprintf("%t", c.Transport.TCPNoDelay))
	addField("Write Buffer Size", strconv.Itoa(c.Transport.WriteBufferSize))
	addField("Read Buffer Size", strconv.Itoa(c.Transport.ReadBufferSize))
	addField("TCP Keep Alive (sec)", strconv.Itoa(c.Transport.TCPKeepAliveSec))
	addField("TCP Linger (sec)", strconv.Itoa(c.Transport.TCPLingerSec))

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig carries the knobs that determine how a client
// discovers and maintains connections to one or more servers.
type ClientTransportConfig struct {
	// Endpoints lists one or more server addresses. A client transport
	// round-robins requests across all live connections.
	Endpoints []string

	// ConnectionsPerEndpoint is the number of parallel connections
	// opened to each endpoint. Defaults to 1 when <= 0.
	ConnectionsPerEndpoint int

	// RetryCount is the number of send attempts (including the first)
	// before a request is considered failed. Defaults to 1 when < 1.
	RetryCount int

	// BufferSize is carried in the config; no client transport in this
	// module reads it.
	BufferSize uint64
}

// ClientConfig holds all configuration parameters for a store RPC client.
type ClientConfig struct {
	// TimeoutSecond bounds how long a single request waits for a
	// response. 0 disables the timeout.
	TimeoutSecond int64

	// LogLevel controls the verbosity of the client's logger.
	LogLevel string

	Transport ClientTransportConfig
}

// String returns a formatted string representation of the client configuration.
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))

	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
