// Package server implements the RPC server that binds a single
// store.Store to the network. It provides an adapter that translates
// wire Messages into store.Store calls, plus the core server that wires
// a transport and serializer to that adapter.
//
// The package focuses on:
//   - Server-side RPC request handling for store operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for the server
//     adapter, with the Handle method that processes incoming requests
//     against a store.Store.
//
//   - NewStoreServerAdapter: Factory function creating an adapter for
//     store operations, translating RPC requests to store.Store method
//     calls.
//
//   - NewRPCServer: Factory function creating a configured server with the
//     specified transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Endpoint: "0.0.0.0:8080",
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  st,
//	  config,
//	  tcp.NewTCPDefaultServerTransport(log),
//	  serializer.NewBinarySerializer(),
//	  log,
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	The Serve method is not thread-safe and should be called only once.
package server
