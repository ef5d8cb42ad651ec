package kv

import (
	"github.com/spf13/cobra"

	"github.com/flaxkv-go/flaxkv/cmd/util"
	"github.com/flaxkv-go/flaxkv/lib/store"
	"github.com/flaxkv-go/flaxkv/rpc/client"
	"github.com/flaxkv-go/flaxkv/rpc/common"
)

var (
	rpcStore store.Store

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform key-value store operations against a running flaxkv server",
		PersistentPreRunE: setupKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(deleteCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(setDefaultCmd)
	KeyValueCommands.AddCommand(updateCmd)
	KeyValueCommands.AddCommand(popCmd)
	KeyValueCommands.AddCommand(itemsCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(valuesCmd)
	KeyValueCommands.AddCommand(lenCmd)
	KeyValueCommands.AddCommand(flushCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the RPC store client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()

	log := common.NewComponentLogger("cmd/kv", common.ParseLogLevel(config.LogLevel))

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetClientTransport(log)
	if err != nil {
		return err
	}

	// Create the KV store client
	rpcStore, err = client.NewRPCStore(*config, t, s)

	return err
}
