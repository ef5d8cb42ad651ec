package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flaxkv-go/flaxkv/lib/store"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := rpcStore.Put(key, []byte(value)); err != nil {
				return err
			}
			fmt.Println("put successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			resp, err := rpcStore.Get(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, value=%v\n", key, resp)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [key]",
		Short: "Deletes a key-value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := rpcStore.Delete(key); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			found, err := rpcStore.Contains(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t\n", key, found)
			return nil
		},
	}
	setDefaultCmd = &cobra.Command{
		Use:   "setdefault [key] [value]",
		Short: "Sets the value for a key if it is not already set, and returns the current value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			resp, err := rpcStore.SetDefault(key, []byte(value))
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, value=%v\n", key, resp)
			return nil
		},
	}
	updateCmd = &cobra.Command{
		Use:   "update [key] [value]...",
		Short: "Sets the values for multiple keys in a single batch",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("update requires an even number of key/value arguments")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := make([]store.Entry, 0, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				entries = append(entries, store.Entry{Key: args[i], Value: []byte(args[i+1])})
			}
			if err := rpcStore.Update(entries); err != nil {
				return err
			}
			fmt.Printf("updated %d entries successfully\n", len(entries))
			return nil
		},
	}
	popCmd = &cobra.Command{
		Use:   "pop [key]",
		Short: "Removes a key and returns its value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			resp, err := rpcStore.Pop(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, value=%v\n", key, resp)
			return nil
		},
	}
	itemsCmd = &cobra.Command{
		Use:   "items",
		Short: "Prints every key/value pair currently in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := rpcStore.Items()
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%v=%v\n", e.Key, e.Value)
			}
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Prints every key currently in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := rpcStore.Keys()
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Println(k)
			}
			return nil
		},
	}
	valuesCmd = &cobra.Command{
		Use:   "values",
		Short: "Prints every value currently in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := rpcStore.Values()
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Println(v)
			}
			return nil
		},
	}
	lenCmd = &cobra.Command{
		Use:   "len",
		Short: "Prints the number of entries in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := rpcStore.Len()
			if err != nil {
				return err
			}
			fmt.Printf("len=%d\n", n)
			return nil
		},
	}
	flushCmd = &cobra.Command{
		Use:   "flush",
		Short: "Forces the server to flush its write buffer to disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := rpcStore.FlushNow(ctx); err != nil {
				return err
			}
			fmt.Println("flush successfully")
			return nil
		},
	}
)
