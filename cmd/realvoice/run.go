package main

import (
	"errors"
	"log"

	"realvoice/audio"
	"realvoice/config"
	"realvoice/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	runImagePath   string
	runImagePrompt string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect and hold a live voice conversation",
	RunE:  runSession,
}

func init() {
	runCmd.Flags().StringVar(&runImagePath, "image", "", "image file to send with the 'p' key")
	runCmd.Flags().StringVar(&runImagePrompt, "prompt", "", "prompt text attached to a sent image")
	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// TUI owns the terminal; keep log noise out of it.
	if f, err := tea.LogToFile("realvoice.log", ""); err == nil {
		defer f.Close()
	}

	player, err := newSoxPlayer()
	if err != nil {
		return err
	}
	engine := audio.NewStreamEngine(player)

	recorder, err := newSoxRecorder()
	if err != nil {
		player.Close()
		return err
	}
	source := audio.NewReaderSource(recorder)

	sess, err := session.NewSession(cfg, engine, source)
	if err != nil {
		player.Close()
		recorder.Close()
		return err
	}
	defer sess.Close()

	if err := sess.Start(); err != nil {
		// A missing capture device blocks speaking but not listening;
		// surface it and keep the session alive.
		if errors.Is(err, audio.ErrDeviceUnavailable) {
			log.Printf("⚠️ Microphone unavailable, continuing receive-only: %v", err)
		} else {
			return err
		}
	}

	ui := newUI(sess, runImagePath, runImagePrompt)
	p := tea.NewProgram(ui, tea.WithAltScreen())

	sess.Transcript.OnChange(func() { p.Send(refreshMsg{}) })
	sess.Events.OnChange(func() { p.Send(refreshMsg{}) })
	sess.Tools.OnChange(func() { p.Send(refreshMsg{}) })
	go func() {
		<-sess.CloseChan
		p.Send(disconnectedMsg{})
	}()

	_, err = p.Run()
	return err
}
