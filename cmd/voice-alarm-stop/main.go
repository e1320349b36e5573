package main

import "github.com/talehto/voice-alarm-app/cmd/voice-alarm-stop/cmd"

func main() {
	cmd.Execute()
}
