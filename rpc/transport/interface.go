package transport

import (
	"github.com/flaxkv-go/flaxkv/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc handles one already-deframed request and returns the
// response bytes to write back. reserved carries the wire frame's
// reserved slot verbatim (always 0 for a single-store server) so the
// framing helpers can stay shard-shaped without a real shard concept.
type ServerHandleFunc func(reserved uint64, req []byte) (resp []byte)

// IRPCServerTransport is the interface every concrete transport
// (tcp, unix, http) implements to bind a Store to the network.
type IRPCServerTransport interface {
	// RegisterHandler registers the handler invoked for each request.
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and blocks, listening for
	// incoming requests, until the underlying listener is closed.
	Listen(config common.ServerConfig) error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport.
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration.
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and returns the response.
	Send(reserved uint64, req []byte) (resp []byte, err error)
	// Close closes the transport connection.
	Close() error
}
