package main

import "github.com/talehto/voice-alarm-app/cmd/voice-alarmctl/cmd"

func main() {
	cmd.Execute()
}
