package main

import "blitztest/cmd"

func main() {
	cmd.Execute()
}
