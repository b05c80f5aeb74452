package terminal

import "github.com/gdamore/tcell/v2"

// Action is a user command recognized by the terminal backend.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionToggleChannel1
	ActionToggleChannel2
	ActionToggleChannel3
	ActionToggleChannel4
	ActionSoloChannel1
	ActionSoloChannel2
	ActionSoloChannel3
	ActionSoloChannel4
	ActionUnmuteAll
	ActionLogLevelIncrease
	ActionLogLevelDecrease
	ActionDebugToggle
)

var actionNames = map[Action]string{
	ActionQuit:             "quit",
	ActionToggleChannel1:   "toggle channel 1",
	ActionToggleChannel2:   "toggle channel 2",
	ActionToggleChannel3:   "toggle channel 3",
	ActionToggleChannel4:   "toggle channel 4",
	ActionSoloChannel1:     "solo channel 1",
	ActionSoloChannel2:     "solo channel 2",
	ActionSoloChannel3:     "solo channel 3",
	ActionSoloChannel4:     "solo channel 4",
	ActionUnmuteAll:        "unmute all",
	ActionLogLevelIncrease: "more logs",
	ActionLogLevelDecrease: "fewer logs",
	ActionDebugToggle:      "toggle debug view",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "none"
}

// keyMapping maps special keys to actions.
var keyMapping = map[tcell.Key]Action{
	tcell.KeyEscape: ActionQuit,
	tcell.KeyCtrlC:  ActionQuit,
	tcell.KeyF1:     ActionSoloChannel1,
	tcell.KeyF2:     ActionSoloChannel2,
	tcell.KeyF3:     ActionSoloChannel3,
	tcell.KeyF4:     ActionSoloChannel4,
	tcell.KeyF10:    ActionDebugToggle,
}

// runeMapping maps printable keys to actions.
var runeMapping = map[rune]Action{
	'q': ActionQuit,
	'1': ActionToggleChannel1,
	'2': ActionToggleChannel2,
	'3': ActionToggleChannel3,
	'4': ActionToggleChannel4,
	'0': ActionUnmuteAll,
	'+': ActionLogLevelIncrease,
	'=': ActionLogLevelIncrease,
	'-': ActionLogLevelDecrease,
	'_': ActionLogLevelDecrease,
}

// actionFor resolves a key event, returning ActionNone for unmapped keys.
func actionFor(ev *tcell.EventKey) Action {
	if act, ok := keyMapping[ev.Key()]; ok {
		return act
	}
	if ev.Key() == tcell.KeyRune {
		return runeMapping[ev.Rune()]
	}
	return ActionNone
}
