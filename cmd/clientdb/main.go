// Command clientdb manages a local registry of business clients.
package main

import "github.com/cartronic/clientdb/internal/cli"

func main() {
	cli.Execute()
}
