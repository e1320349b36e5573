package main

import "github.com/talehto/voice-alarm-app/cmd/voice-alarmd/cmd"

func main() {
	cmd.Execute()
}
