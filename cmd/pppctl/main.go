// pppctl is the CLI client for the gopppd daemon's control API.
package main

import "github.com/tokarak/gopppd/cmd/pppctl/commands"

func main() {
	commands.Execute()
}
