package cli

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/aloche971/VoiceApp/internal/ui"
	"github.com/aloche971/VoiceApp/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "voiceapp",
	Short:   "Two-party voice calls over WebRTC, from the terminal",
	Long:    `VoiceApp places direct peer-to-peer voice calls between two devices using WebRTC. A lightweight signaling server brokers the connection; once the call is up, audio flows directly between peers.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
