package server

import (
	"fmt"
	"runtime"
	"os/signal"
	"syscall"

	"github.com/flaxkv-go/flaxkv/internal/logging"
	"github.com/flaxkv-go/flaxkv/lib/store"
	"github.com/flaxkv-go/flaxkv/rpc/common"
	"github.com/flaxkv-go/flaxkv/rpc/serializer"
	"github.com/flaxkv-go/flaxkv/rpc/transport"
)

// NewRPCServer creates a new RPC server binding s to the given transport
// and serializer. reserved is not used for routing: a server exposes a
// single store, so every request's reserved slot is 0.
//
// Usage:
//
//	s := server.NewRPCServer(
//		st,
//		config,
//		tcp.NewTCPDefaultServerTransport(log),
//		serializer.NewBinarySerializer(),
//		log,
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	st store.Store,
	config common.ServerConfig,
	tr transport.IRPCServerTransport,
	ser serializer.IRPCSerializer,
	log logging.Logger,
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	log.Infof("created rpc server")
	log.Infof(config.String())

	return rpcServer{
		store:      st,
		config:     config,
		transport:  tr,
		serializer: ser,
		adapter:    NewStoreServerAdapter(),
		log:        log,
	}
}

type rpcServer struct {
	store      store.Store
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	adapter    IRPCServerAdapter
	log        logging.Logger
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(reserved uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to deserialize request: %s", err),
			}
		} else {
			respMsg = *s.adapter.Handle(&msg, s.store)
		}

		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to serialize response: %s", err),
			}
			val, _ = s.serializer.Serialize(respMsg)
		}
		return val
	})
}

// Serve starts the RPC server. It registers the transport handler and
// blocks in the transport's Listen loop until the listener is closed.
func (s *rpcServer) Serve() error {
	s.registerTransportHandler()
	s.log.Infof("flaxkv rpc server ready")
	return s.transport.Listen(s.config)
}
