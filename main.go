package main

import "interview-copilot/cmd"

func main() {
	cmd.Execute()
}
