package terminal

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-vgmplay/vgmplay/backend"
	"github.com/valerio/go-vgmplay/vgmplay/backend/terminal/render"
	"github.com/valerio/go-vgmplay/vgmplay/chip"
	"github.com/valerio/go-vgmplay/vgmplay/disasm"
	"github.com/valerio/go-vgmplay/vgmplay/player"
)

const (
	minTermWidth  = 60
	minTermHeight = 20

	infoHeight   = 3
	meterWidth   = 15
	disasmHeight = 9
	logCapacity  = 200
)

// Backend draws a live monitor of the player with tcell.
type Backend struct {
	screen    tcell.Screen
	config    backend.Config
	logBuffer *render.LogBuffer
	logLevel  slog.Level
	index     *disasm.Index
	quit      bool
}

// New creates a backend drawing to the controlling terminal.
func New() *Backend {
	return &Backend{logLevel: slog.LevelInfo}
}

// NewWithScreen creates a backend drawing to screen, which Init will
// initialize. Used with tcell's simulation screen in tests.
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{screen: screen, logLevel: slog.LevelInfo}
}

func (t *Backend) Init(config backend.Config) error {
	t.config = config

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	// Logs would corrupt the screen; capture them for the log pane instead.
	t.logBuffer = render.NewLogBuffer(logCapacity)
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, slog.LevelDebug)))

	if config.Stream != nil {
		t.index = disasm.NewIndex(config.Stream)
	}

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	slog.Info("Terminal backend initialized")
	return nil
}

// Update processes pending key events and redraws the screen.
func (t *Backend) Update(status backend.Status) error {
	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if act := actionFor(ev); act != ActionNone {
				t.HandleAction(act)
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	t.render(status)
	t.screen.Show()
	return nil
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		slog.Info("Cleaning up terminal backend")
		t.screen.Fini()
	}
	return nil
}

// HandleAction applies a user command.
func (t *Backend) HandleAction(act Action) {
	slog.Debug("UI event", "action", act)

	mixer := t.config.Mixer
	switch act {
	case ActionQuit:
		if !t.quit && t.config.Callbacks.OnQuit != nil {
			t.config.Callbacks.OnQuit()
		}
		t.quit = true
	case ActionToggleChannel1, ActionToggleChannel2, ActionToggleChannel3, ActionToggleChannel4:
		if mixer != nil {
			ch := int(act-ActionToggleChannel1) + 1
			mixer.ToggleChannel(ch)
			slog.Info("Toggled channel", "channel", ch)
		}
	case ActionSoloChannel1, ActionSoloChannel2, ActionSoloChannel3, ActionSoloChannel4:
		if mixer != nil {
			ch := int(act-ActionSoloChannel1) + 1
			mixer.SoloChannel(ch)
			slog.Info("Solo channel", "channel", ch)
		}
	case ActionUnmuteAll:
		if mixer != nil {
			mixer.UnmuteAll()
			slog.Info("Unmuted all channels")
		}
	case ActionDebugToggle:
		t.config.ShowDebug = !t.config.ShowDebug
	case ActionLogLevelIncrease:
		t.changeLogLevel(1)
	case ActionLogLevelDecrease:
		t.changeLogLevel(-1)
	}
}

// LogLevel returns the minimum level shown in the log pane.
func (t *Backend) LogLevel() slog.Level {
	return t.logLevel
}

// changeLogLevel shows more (+1) or fewer (-1) log levels.
func (t *Backend) changeLogLevel(direction int) {
	levels := []slog.Level{slog.LevelError, slog.LevelWarn, slog.LevelInfo, slog.LevelDebug}

	i := 0
	for j, l := range levels {
		if l == t.logLevel {
			i = j
		}
	}
	i = max(0, min(i+direction, len(levels)-1))

	if old := t.logLevel; old != levels[i] {
		t.logLevel = levels[i]
		slog.Info("Log filter changed", "from", old, "to", t.logLevel)
	}
}

func (t *Backend) render(status backend.Status) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	y := 0
	t.drawRule(y, termWidth, " "+filepath.Base(t.config.Title)+" ", titleStyle, borderStyle)
	y++
	y = t.drawInfo(y, termWidth)
	y = t.drawChannels(y, termWidth, status)
	y = t.drawProgress(y, termWidth, status)

	if t.config.ShowDebug && t.config.Stream != nil {
		t.drawRule(y, termWidth, " Commands ", titleStyle, borderStyle)
		y++
		y = t.drawDisassembly(y, termWidth, status)
	}

	t.drawRule(y, termWidth, fmt.Sprintf(" Logs [%s] (-/+ filter) ", t.logLevel), titleStyle, borderStyle)
	y++
	t.drawLogs(y, termWidth, termHeight-1-y)

	help := " q=quit 1-4=mute F1-F4=solo 0=unmute all F10=commands +/-=log level "
	t.drawText(0, termHeight-1, termWidth, help, borderStyle)
}

func (t *Backend) drawInfo(y, width int) int {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	lines := make([]string, 0, infoHeight)
	if tags := t.config.Tags; tags != nil {
		lines = append(lines,
			"Track:  "+tags.Title(),
			"Author: "+tags.Author(),
			"System: "+firstNonEmpty(tags.SystemEN, tags.SystemJP))
	} else {
		lines = append(lines, "Raw command stream")
	}
	for _, line := range lines {
		t.drawText(1, y, width-1, line, style)
		y++
	}
	return y + 1
}

func (t *Backend) drawChannels(y, width int, status backend.Status) int {
	for ch, c := range status.Channels {
		style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
		if c.Muted {
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		}

		detail := fmt.Sprintf("%7.1f Hz", c.Frequency)
		if ch == chip.NoiseChannel {
			detail = fmt.Sprintf("%s rate %d", c.NoiseMode, c.NoiseRate)
		}
		mute := ""
		if c.Muted {
			mute = " [muted]"
		}
		line := fmt.Sprintf("%-5s %s att %2d  %s%s",
			render.ChannelName(ch), render.MeterBar(c.Attenuation, meterWidth), c.Attenuation, detail, mute)
		t.drawText(1, y, width-1, line, style)
		y++
	}
	return y + 1
}

func (t *Backend) drawProgress(y, width int, status backend.Status) int {
	st := status.Player
	state := "▶"
	if st.State == player.Stopped {
		state = "■"
	}

	clock := render.FormatClock(status.Elapsed())
	if t.config.Duration > 0 {
		clock += " / " + render.FormatClock(t.config.Duration)
	}
	counters := fmt.Sprintf(" 0x%04X/0x%04X writes %d", st.Cursor, st.Len, st.Writes)

	barWidth := width - len(clock) - len(counters) - 6
	line := fmt.Sprintf("%s %s %s%s", state, clock, render.ProgressBar(status.Progress(), barWidth), counters)
	t.drawText(1, y, width-1, line, tcell.StyleDefault.Foreground(tcell.ColorBlue))
	return y + 2
}

func (t *Backend) drawDisassembly(y, width int, status backend.Status) int {
	cursor := status.Player.Cursor
	lines := t.index.Around(cursor, disasmHeight/2, disasmHeight/2)

	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	currentStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	for i := 0; i < disasmHeight; i++ {
		if i < len(lines) {
			current := lines[i].Offset == cursor
			s := style
			if current {
				s = currentStyle
			}
			t.drawText(1, y+i, width-1, disasm.FormatLine(lines[i], current), s)
		}
	}
	return y + disasmHeight
}

func (t *Backend) drawLogs(y, width, height int) {
	if height <= 0 {
		return
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	for i, entry := range t.logBuffer.Recent(height, t.logLevel) {
		style := infoStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = errStyle
		case entry.Level >= slog.LevelWarn:
			style = warnStyle
		case entry.Level < slog.LevelInfo:
			style = debugStyle
		}
		t.drawText(1, y+i, width-1, render.FormatLogEntry(entry), style)
	}
}

func (t *Backend) drawRule(y, width int, title string, titleStyle, style tcell.Style) {
	for x := 0; x < width; x++ {
		t.screen.SetContent(x, y, '─', nil, style)
	}
	t.drawText(2, y, width-2, title, titleStyle)
}

func (t *Backend) drawText(x, y, width int, text string, style tcell.Style) {
	for i, r := range []rune(render.Truncate(text, width)) {
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
