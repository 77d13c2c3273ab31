package cli

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner shows an animated status line while the agent is working.
type Spinner struct {
	frames   []string
	interval time.Duration
	writer   io.Writer

	mu       sync.Mutex
	label    string
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// NewSpinner creates a stopped spinner writing to w.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 80 * time.Millisecond,
		writer:   w,
	}
}

// Start begins the animation with label. Calling Start on a running spinner
// only swaps the label.
func (s *Spinner) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = label
	if s.running {
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})

	s.wg.Add(1)
	go s.spin(s.stopChan)
}

func (s *Spinner) spin(stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for idx := 0; ; idx++ {
		s.mu.Lock()
		fmt.Fprintf(s.writer, "\r\033[K%s %s", s.frames[idx%len(s.frames)], s.label)
		s.mu.Unlock()
		select {
		case <-stop:
			s.mu.Lock()
			fmt.Fprint(s.writer, "\r\033[K")
			s.mu.Unlock()
			return
		case <-ticker.C:
		}
	}
}

// Stop halts the animation and clears the line. Safe to call when stopped.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
}
