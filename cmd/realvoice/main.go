package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "realvoice",
	Short: "Realtime voice client for a conversational agent server",
	Long: `realvoice streams microphone audio to an agent server over a websocket,
plays the synthesized speech coming back, and renders a live transcript.

Audio I/O goes through sox: playback is piped to "sox ... -d" and the
microphone is read from "sox -d ...".`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
