package main

import "github.com/kozaktomas/emotion-recognizer/cmd"

func main() {
	cmd.Execute()
}
