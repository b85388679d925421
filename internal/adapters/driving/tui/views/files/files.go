// Package files provides the upload set and ingestion progress view.
//
// The view owns the ingestion cadence: every IngestionTick reconciles the
// queue with the live upload set and advances the state machine by at most
// one file, then schedules the next tick until the run finishes.
package files

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// maxLog bounds the per-file results kept on screen.
const maxLog = 8

// View shows the selected uploads and drives ingestion.
type View struct {
	ctx       context.Context
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	ingestion driving.IngestionService
	uploads   driven.UploadSource
	interval  time.Duration

	statusBar *status.Bar
	bar       progress.Model

	names   []string
	state   domain.ProcessingState
	log     []domain.FileResult
	running bool
	err     error
	width   int
	height  int
}

// NewView creates a files view driving the given ingestion state machine.
func NewView(
	ctx context.Context,
	s *styles.Styles,
	ingestion driving.IngestionService,
	uploads driven.UploadSource,
	interval time.Duration,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if interval <= 0 {
		interval = domain.DefaultTickInterval
	}

	sb := status.NewBar(s, nil)
	sb.SetHints(status.HintsFiles)

	return &View{
		ctx:       ctx,
		styles:    s,
		keymap:    keymap.DefaultKeyMap(),
		ingestion: ingestion,
		uploads:   uploads,
		interval:  interval,
		statusBar: sb,
		bar:       progress.New(progress.WithDefaultGradient()),
		width:     80,
		height:    24,
	}
}

// Init loads the upload set and the persisted ingestion state.
func (v *View) Init() tea.Cmd {
	return v.load()
}

// Update handles messages for the files view. Ingestion messages must be
// routed here even while another view is active.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.UploadsLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.names = msg.Names
		v.setState(msg.State)
		// Resume a run interrupted by a restart.
		if msg.State.Status.IsActive() {
			return v, v.startLoop()
		}
		return v, nil

	case messages.IngestionStarted:
		if msg.Err != nil {
			if domain.IsDeclinedStart(msg.Err) {
				v.statusBar.SetState(status.StateReady)
				v.statusBar.SetMessage(declinedMessage(msg.Err))
				return v, nil
			}
			v.setError(msg.Err)
			return v, nil
		}
		v.err = nil
		v.log = nil
		v.setState(msg.State)
		return v, v.startLoop()

	case messages.IngestionTick:
		if !v.running {
			return v, nil
		}
		return v, v.tick()

	case messages.IngestionTicked:
		return v, v.handleTicked(msg)

	case messages.IngestionCancelled:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.running = false
		v.setState(msg.State)
		if !msg.Cancelled {
			v.statusBar.SetMessage("Nothing to cancel")
		}
		return v, nil

	case progress.FrameMsg:
		m, cmd := v.bar.Update(msg)
		if bar, ok := m.(progress.Model); ok {
			v.bar = bar
		}
		return v, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Back):
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		case key.Matches(msg, v.keymap.Ingest):
			return v, v.start()
		case key.Matches(msg, v.keymap.Cancel):
			return v, v.cancel()
		case key.Matches(msg, v.keymap.Reload):
			return v, v.load()
		}
	}

	return v, nil
}

func (v *View) handleTicked(msg messages.IngestionTicked) tea.Cmd {
	if msg.Err != nil {
		v.running = false
		v.setError(msg.Err)
		return nil
	}

	res := msg.Result
	if len(msg.Removed) > 0 {
		v.names = removeNames(v.names, msg.Removed)
	}
	if res.File != nil {
		v.log = append(v.log, *res.File)
		if len(v.log) > maxLog {
			v.log = v.log[len(v.log)-maxLog:]
		}
	}
	v.setState(res.State)

	if res.Done() || res.State.Status == domain.StatusCancelled {
		v.running = false
		return nil
	}
	return v.schedule()
}

// View renders the files view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Files"))
	b.WriteString("\n\n")

	if len(v.names) == 0 {
		b.WriteString(v.styles.Muted.Render("No files selected."))
		b.WriteString("\n")
	}
	for _, name := range v.names {
		b.WriteString("  " + v.styles.Normal.Render(name) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Ingestion: " + string(v.state.Status)))
	b.WriteString("\n")
	if v.state.Status != "" && v.state.Status != domain.StatusIdle {
		b.WriteString(v.bar.ViewAs(v.state.Progress))
		b.WriteString("\n")
	}
	if v.state.Message != "" {
		b.WriteString(v.styles.Muted.Render(v.state.Message))
		b.WriteString("\n")
	}

	for _, r := range v.log {
		line := fmt.Sprintf("  %s %s", v.styles.Outcome(r.Outcome), r.Filename)
		if r.Reason != "" {
			line += v.styles.Muted.Render(" (" + r.Reason + ")")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(v.statusBar.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.statusBar.SetWidth(width)
	v.bar.Width = max(width-4, 10)
}

// Running reports whether the tick loop is active.
func (v *View) Running() bool {
	return v.running
}

// State returns the last observed ingestion state.
func (v *View) State() domain.ProcessingState {
	return v.state
}

// Names returns the uploads shown.
func (v *View) Names() []string {
	return v.names
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func (v *View) setState(state domain.ProcessingState) {
	v.state = state
	v.statusBar.SetProgress(state.Progress)
	switch {
	case state.Status.IsActive():
		v.statusBar.SetState(status.StateIngesting)
		v.statusBar.SetMessage(state.CurrentFilename)
	case state.Status == domain.StatusError:
		v.statusBar.SetState(status.StateError)
		v.statusBar.SetMessage(state.Message)
	default:
		v.statusBar.SetState(status.StateReady)
		v.statusBar.SetMessage(state.Message)
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusBar.SetState(status.StateError)
	v.statusBar.SetMessage(err.Error())
}

// startLoop schedules the first tick unless a loop is already running.
func (v *View) startLoop() tea.Cmd {
	if v.running {
		return nil
	}
	v.running = true
	return v.schedule()
}

func (v *View) schedule() tea.Cmd {
	return tea.Tick(v.interval, func(time.Time) tea.Msg {
		return messages.IngestionTick{}
	})
}

func (v *View) load() tea.Cmd {
	ctx, ingestion, uploads := v.ctx, v.ingestion, v.uploads
	return func() tea.Msg {
		live, err := uploads.Uploads(ctx)
		if err != nil {
			return messages.UploadsLoaded{Err: fmt.Errorf("list uploads: %w", err)}
		}
		state, err := ingestion.State(ctx)
		if err != nil {
			return messages.UploadsLoaded{Err: err}
		}
		return messages.UploadsLoaded{Names: uploadNames(live), State: state}
	}
}

func (v *View) start() tea.Cmd {
	ctx, ingestion, uploads := v.ctx, v.ingestion, v.uploads
	return func() tea.Msg {
		live, err := uploads.Uploads(ctx)
		if err != nil {
			return messages.IngestionStarted{Err: fmt.Errorf("list uploads: %w", err)}
		}
		state, err := ingestion.Start(ctx, live)
		return messages.IngestionStarted{State: state, Err: err}
	}
}

func (v *View) tick() tea.Cmd {
	ctx, ingestion, uploads := v.ctx, v.ingestion, v.uploads
	return func() tea.Msg {
		live, err := uploads.Uploads(ctx)
		if err != nil {
			return messages.IngestionTicked{Err: fmt.Errorf("list uploads: %w", err)}
		}
		removed, err := ingestion.UpdateFiles(ctx, live)
		if err != nil {
			return messages.IngestionTicked{Err: err}
		}
		res, err := ingestion.ProcessNext(ctx, live)
		return messages.IngestionTicked{Result: res, Removed: removed, Err: err}
	}
}

func (v *View) cancel() tea.Cmd {
	ctx, ingestion := v.ctx, v.ingestion
	return func() tea.Msg {
		cancelled, err := ingestion.Cancel(ctx, domain.CancelReasonDefault)
		if err != nil {
			return messages.IngestionCancelled{Err: err}
		}
		state, err := ingestion.State(ctx)
		return messages.IngestionCancelled{Cancelled: cancelled, State: state, Err: err}
	}
}

func declinedMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoFiles):
		return "No files selected"
	case errors.Is(err, domain.ErrAllFilesIndexed):
		return "All files are already indexed"
	default:
		return "Ingestion already in progress"
	}
}

func uploadNames(uploads []domain.Upload) []string {
	names := make([]string, 0, len(uploads))
	for _, u := range uploads {
		names = append(names, u.Name)
	}
	return names
}

func removeNames(names, removed []string) []string {
	drop := make(map[string]struct{}, len(removed))
	for _, r := range removed {
		drop[r] = struct{}{}
	}
	out := names[:0:0]
	for _, n := range names {
		if _, ok := drop[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
