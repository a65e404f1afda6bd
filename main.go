package main

import "github.com/aicodeswitch/aicodeswitch/cmd"

func main() {
	cmd.Execute()
}
