package tui

import (
	"github.com/runoshun/agentdeck/internal/loop"
	"github.com/runoshun/agentdeck/internal/usecase"
)

// Msg is the sealed interface for all dashboard messages.
//
// go-sumtype:decl Msg
type Msg interface {
	sealed()
}

// MsgTick is sent by the tick timer.
type MsgTick struct{}

func (MsgTick) sealed() {}

// MsgTicked is sent when one control loop tick has finished.
type MsgTicked struct {
	Result *loop.TickResult
	Err    error
}

func (MsgTicked) sealed() {}

// MsgRefreshed is sent when the overview has been reloaded.
type MsgRefreshed struct {
	Overview *usecase.OverviewOutput
}

func (MsgRefreshed) sealed() {}

// MsgLaunched is sent when a task has been launched.
type MsgLaunched struct {
	Pane   string
	TaskID int64
}

func (MsgLaunched) sealed() {}

// MsgMarkedDone is sent when a task has been confirmed done.
type MsgMarkedDone struct {
	TaskID int64
}

func (MsgMarkedDone) sealed() {}

// MsgAttachDone is sent when returning from an attached pane.
type MsgAttachDone struct {
	Err error
}

func (MsgAttachDone) sealed() {}

// MsgError is sent when an operation fails.
type MsgError struct {
	Err error
}

func (MsgError) sealed() {}

// Compile-time check that all message types implement Msg.
var (
	_ Msg = MsgTick{}
	_ Msg = MsgTicked{}
	_ Msg = MsgRefreshed{}
	_ Msg = MsgLaunched{}
	_ Msg = MsgMarkedDone{}
	_ Msg = MsgAttachDone{}
	_ Msg = MsgError{}
)
