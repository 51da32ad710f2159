package main

import "songlib/cmd"

func main() {
	cmd.Execute()
}
