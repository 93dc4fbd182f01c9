package main

import (
	"fmt"
	"strings"

	"realvoice/session"
	"realvoice/transcript"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type refreshMsg struct{}
type disconnectedMsg struct{}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	statusOKStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	paneStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type uiModel struct {
	sess        *session.Session
	vp          viewport.Model
	ready       bool
	width       int
	height      int
	connected   bool
	status      string
	imagePath   string
	imagePrompt string
}

func newUI(sess *session.Session, imagePath, imagePrompt string) uiModel {
	return uiModel{
		sess:        sess,
		connected:   true,
		status:      "connected as " + sess.ID,
		imagePath:   imagePath,
		imagePrompt: imagePrompt,
	}
}

func (m uiModel) Init() tea.Cmd {
	return nil
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 12
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.vp = viewport.New(m.width-4, vpHeight)
			m.ready = true
		} else {
			m.vp.Width = m.width - 4
			m.vp.Height = vpHeight
		}
		m.vp.SetContent(m.transcriptView())
		m.vp.GotoBottom()
		return m, nil

	case refreshMsg:
		if m.ready {
			m.vp.SetContent(m.transcriptView())
			m.vp.GotoBottom()
		}
		return m, nil

	case disconnectedMsg:
		m.connected = false
		m.status = "disconnected"
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.sess.Close()
			return m, tea.Quit
		case "m":
			if m.sess.ToggleMute() {
				m.status = "mic muted"
			} else {
				m.status = "mic live"
			}
			return m, nil
		case "i":
			m.sess.Playback.Cancel()
			if err := m.sess.Interrupt(); err != nil {
				m.status = "interrupt failed: " + err.Error()
			} else {
				m.status = "interrupted"
			}
			return m, nil
		case "p":
			if m.imagePath == "" {
				m.status = "no image configured (use --image)"
				return m, nil
			}
			if err := m.sess.SendImageFile(m.imagePath, m.imagePrompt); err != nil {
				m.status = "image send failed: " + err.Error()
			} else {
				m.status = "image sent"
			}
			return m, nil
		}
	}

	if m.ready {
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m uiModel) View() string {
	if !m.ready {
		return "loading..."
	}

	status := statusOKStyle.Render("● " + m.status)
	if !m.connected {
		status = statusErrStyle.Render("○ " + m.status)
	}
	mic := "🎤 live"
	if m.sess.Capture.Muted() {
		mic = "🔇 muted"
	} else if !m.sess.Capture.Capturing() {
		mic = "⚠️ no mic"
	}

	header := headerStyle.Render("realvoice") + "  " + status + "  " + dimStyle.Render(mic)
	transcriptPane := paneStyle.Width(m.width - 2).Render(m.vp.View())
	activity := paneStyle.Width(m.width - 2).Render(m.activityView())
	help := dimStyle.Render("m mute · i interrupt · p send image · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, transcriptPane, activity, help)
}

func (m uiModel) transcriptView() string {
	entries := m.sess.Transcript.Entries()
	if len(entries) == 0 {
		return dimStyle.Render("(conversation will appear here)")
	}

	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(roleLabel(e))
		if e.Image != "" {
			sb.WriteString(dimStyle.Render(fmt.Sprintf(" [image, %d chars]", len(e.Image))))
		}
		if e.Caption != "" {
			sb.WriteString(" " + e.Caption)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// activityView renders the last few tool events and raw event tags.
func (m uiModel) activityView() string {
	var lines []string

	tools := m.sess.Tools.Events()
	if len(tools) > 3 {
		tools = tools[len(tools)-3:]
	}
	for _, t := range tools {
		lines = append(lines, fmt.Sprintf("%s %s: %s", t.At.Format("15:04:05"), t.Title, t.Detail))
	}

	events := m.sess.Events.Events()
	if len(events) > 0 {
		var tags []string
		start := len(events) - 8
		if start < 0 {
			start = 0
		}
		for _, ev := range events[start:] {
			tags = append(tags, ev.Type)
		}
		lines = append(lines, dimStyle.Render("events: "+strings.Join(tags, " · ")))
	}

	if len(lines) == 0 {
		return dimStyle.Render("(no activity yet)")
	}
	return strings.Join(lines, "\n")
}

func roleLabel(e transcript.Entry) string {
	switch e.Role {
	case "user":
		return userStyle.Render("you:")
	case "assistant":
		return assistantStyle.Render("agent:")
	default:
		if e.Role == "" {
			return dimStyle.Render("?:")
		}
		return dimStyle.Render(e.Role + ":")
	}
}
