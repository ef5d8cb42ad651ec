// Command flaxkv is the CLI entrypoint: it runs the server or drives a
// running server as a client.
package main

import "github.com/flaxkv-go/flaxkv/cmd"

func main() {
	cmd.Execute()
}
