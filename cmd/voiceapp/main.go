package main

import (
	"github.com/aloche971/VoiceApp/internal/cli"
	"github.com/aloche971/VoiceApp/internal/logging"
)

func main() {
	logging.Init()
	cli.Execute()
}
