// Package client implements an RPC client for flaxkv. It provides an
// implementation of store.Store that forwards every operation to a remote
// server via RPC.
//
// The package focuses on:
//   - Transparent RPC access to a remote store.Store
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCStore: Factory function that creates a client implementing the
//     store.Store interface. This client forwards all operations to a
//     remote server via the configured transport layer.
//
// Usage Example:
//
//		// Configure the client
//		config := common.ClientConfig{
//		  Transport: common.ClientTransportConfig{
//		    Endpoints:              []string{"localhost:5000"},
//		    ConnectionsPerEndpoint: 1,
//		    RetryCount:             3,
//		  },
//		  TimeoutSecond: 5,
//		}
//
//	 // Create a serializer
//		ser := serializer.NewBinarySerializer()
//
//		// Create store client
//		st, _ := client.NewRPCStore(config, tcp.NewTCPClientTransport(log), ser)
//
//		// Use the store
//		st.Put("mykey", []byte("myvalue"))
//		value, err := st.Get("mykey")
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	The client implementation is thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
