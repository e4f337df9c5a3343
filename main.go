package main

import "github.com/kozaktomas/best-smile/cmd"

func main() {
	cmd.Execute()
}
