package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// SimpleSpinner is a blocking spinner for short CLI operations, rendered
// without a full bubbletea program so prior output stays put.
type SimpleSpinner struct {
	message  string
	spinner  spinner.Spinner
	interval time.Duration
	done     chan struct{}
	stopped  bool
}

// NewSimpleSpinner creates a spinner for general loading operations.
func NewSimpleSpinner(message string) *SimpleSpinner {
	return &SimpleSpinner{
		message:  message,
		spinner:  spinner.Dot,
		interval: 80 * time.Millisecond,
		done:     make(chan struct{}),
	}
}

// NewConnectionSpinner creates a spinner for network operations.
func NewConnectionSpinner(message string) *SimpleSpinner {
	return &SimpleSpinner{
		message:  message,
		spinner:  spinner.Globe,
		interval: 180 * time.Millisecond,
		done:     make(chan struct{}),
	}
}

// NewWaitingSpinner creates a spinner for waiting on external events.
func NewWaitingSpinner(message string) *SimpleSpinner {
	return &SimpleSpinner{
		message:  message,
		spinner:  spinner.Points,
		interval: 100 * time.Millisecond,
		done:     make(chan struct{}),
	}
}

func (s *SimpleSpinner) Start() {
	go func() {
		frames := s.spinner.Frames
		i := 0
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				frame := SpinnerStyle.Render(frames[i%len(frames)])
				fmt.Printf("\r%s %s", frame, s.message)
				i++
			}
		}
	}()
}

func (s *SimpleSpinner) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)
	fmt.Printf("\r%s\r", strings.Repeat(" ", len(s.message)+4))
}

// RunSpinner starts a loading spinner and returns its stop function.
func RunSpinner(message string) func() {
	s := NewSimpleSpinner(message)
	s.Start()
	return s.Stop
}

// RunConnectionSpinner starts a network spinner and returns its stop
// function.
func RunConnectionSpinner(message string) func() {
	s := NewConnectionSpinner(message)
	s.Start()
	return s.Stop
}

// RunWaitingSpinner starts a waiting spinner and returns its stop function.
func RunWaitingSpinner(message string) func() {
	s := NewWaitingSpinner(message)
	s.Start()
	return s.Stop
}
