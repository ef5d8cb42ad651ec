package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flaxkv-go/flaxkv/cmd/kv"
	"github.com/flaxkv-go/flaxkv/cmd/serve"
	"github.com/flaxkv-go/flaxkv/cmd/util"
)

const (
	Version = "0.1.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "flaxkv",
		Short: "buffered, embeddable key-value store",
		Long: fmt.Sprintf(`flaxkv (v%s)

A persistent key-value store library written in Go, backed by a
pluggable engine and a write-coalescing buffer to absorb bursty
writes without hammering the disk on every call.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of flaxkv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("flaxkv v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
