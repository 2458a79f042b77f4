package main

import "github.com/mcpo-tools/mcpoctl/cmd"

func main() {
	cmd.Execute()
}
