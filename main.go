package main

import "rcconf-manager/cmd"

func main() {
	cmd.Execute()
}
