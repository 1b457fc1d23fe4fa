package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// CallUpdate is pushed from the call goroutines into the live view.
type CallUpdate struct {
	State     string
	PeerID    string
	PeerMuted bool
	Done      bool
	ErrMsg    string
}

// CallAction is what the user asked for through the keyboard.
type CallAction int

const (
	ActionNone CallAction = iota
	ActionToggleMute
	ActionHangUp
)

// CallView is the live in-call display: connection state, elapsed time and
// mute indicators. Runs inline, no alt screen, so the room box above stays
// visible.
type CallView struct {
	program    *tea.Program
	model      *callModel
	updateChan chan CallUpdate
	actions    chan CallAction
	wg         sync.WaitGroup
}

type callModel struct {
	roomID     string
	state      string
	peerID     string
	muted      bool
	peerMuted  bool
	errMsg     string
	startTime  time.Time
	spinner    spinner.Model
	updateChan chan CallUpdate
	actions    chan CallAction
	mu         sync.RWMutex
	quitting   bool
}

type callTickMsg time.Time

// NewCallView builds the view for one call.
func NewCallView(roomID string) *CallView {
	updateChan := make(chan CallUpdate, 16)
	actions := make(chan CallAction, 4)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	model := &callModel{
		roomID:     roomID,
		state:      "negotiating",
		spinner:    s,
		startTime:  time.Now(),
		updateChan: updateChan,
		actions:    actions,
	}

	return &CallView{
		// Built here, not in Start, so Stop always has a program to quit
		// no matter how the two calls interleave.
		program:    tea.NewProgram(model),
		model:      model,
		updateChan: updateChan,
		actions:    actions,
	}
}

// Start runs the view in a goroutine.
func (v *CallView) Start() {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		if _, err := v.program.Run(); err != nil {
			fmt.Printf("UI error: %v\n", err)
		}
	}()
}

// Push delivers a state update to the view.
func (v *CallView) Push(u CallUpdate) {
	select {
	case v.updateChan <- u:
	default:
	}
}

// Actions returns user requests (mute toggle, hang up).
func (v *CallView) Actions() <-chan CallAction {
	return v.actions
}

// Stop terminates the view and waits for it to unwind.
func (v *CallView) Stop() {
	v.program.Quit()
	v.wg.Wait()
}

func (m *callModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.listenForUpdates(),
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return callTickMsg(t) }),
	)
}

func (m *callModel) listenForUpdates() tea.Cmd {
	return func() tea.Msg {
		return <-m.updateChan
	}
}

func (m *callModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "m":
			m.mu.Lock()
			m.muted = !m.muted
			m.mu.Unlock()
			select {
			case m.actions <- ActionToggleMute:
			default:
			}
		case "q", "ctrl+c":
			m.quitting = true
			select {
			case m.actions <- ActionHangUp:
			default:
			}
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case callTickMsg:
		if !m.quitting {
			cmds = append(cmds, tea.Tick(time.Second, func(t time.Time) tea.Msg { return callTickMsg(t) }))
		}

	case CallUpdate:
		m.mu.Lock()
		if msg.State != "" {
			m.state = msg.State
		}
		if msg.PeerID != "" {
			m.peerID = msg.PeerID
		}
		m.peerMuted = msg.PeerMuted
		m.errMsg = msg.ErrMsg
		m.mu.Unlock()
		if msg.Done {
			m.quitting = true
			return m, tea.Quit
		}
		cmds = append(cmds, m.listenForUpdates())
	}

	return m, tea.Batch(cmds...)
}

func (m *callModel) View() string {
	if m.quitting {
		return ""
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	b.WriteString(fmt.Sprintf("\n%s Call %s\n\n", IconCall, BoldStyle.Render(m.roomID)))

	switch m.state {
	case "connected":
		elapsed := time.Since(m.startTime).Round(time.Second)
		b.WriteString(fmt.Sprintf("  %s connected  %s\n", SuccessStyle.Render("●"), MutedStyle.Render(elapsed.String())))
	default:
		b.WriteString(fmt.Sprintf("  %s %s\n", m.spinner.View(), m.state))
	}

	if m.peerID != "" {
		peer := fmt.Sprintf("  %s %s", IconPeer, m.peerID)
		if m.peerMuted {
			peer += " " + MutedStyle.Render(IconMuted+" muted")
		}
		b.WriteString(peer + "\n")
	}
	if m.muted {
		b.WriteString(fmt.Sprintf("  %s you are muted\n", IconMuted))
	}
	if m.errMsg != "" {
		b.WriteString("  " + ErrorStyle.Render(m.errMsg) + "\n")
	}

	b.WriteString("\n" + MutedStyle.Render("m to mute · q to hang up"))
	return b.String()
}
