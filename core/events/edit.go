package events

import "time"

// EditAction names an edit session transition.
type EditAction string

const (
	ActionLoad    EditAction = "load"
	ActionEdit    EditAction = "edit"
	ActionUndo    EditAction = "undo"
	ActionSave    EditAction = "save"
	ActionDiscard EditAction = "discard"
	ActionReset   EditAction = "reset"
)

// EditEvent is published by an edit session after each transition.
type EditEvent struct {
	Action    EditAction
	VersionID string
	Vessel    string // set for edits
	UndoDepth int
	Time      time.Time
}
