package server

import (
	"github.com/flaxkv-go/flaxkv/lib/store"
	"github.com/flaxkv-go/flaxkv/rpc/common"
)

// IRPCServerAdapter is the interface responsible for translating one wire
// Message into a call against a store.Store and back into a Message.
// If an error occurs it is set in the response, never returned directly.
type IRPCServerAdapter interface {
	Handle(req *common.Message, s store.Store) (resp *common.Message)
}
