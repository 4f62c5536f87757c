package main

import "github.com/ezenkico/meet-commander/cmd"

func main() {
	cmd.Execute()
}
