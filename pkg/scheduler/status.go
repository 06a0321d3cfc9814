package scheduler

import (
	"context"

	"github.com/looplab/fsm"

	"tableflip.dev/chronos/pkg/journal"
)

const (
	eventSave   = "save"
	eventSaved  = "saved"
	eventLocal  = "local"
	eventFail   = "fail"
	eventRevert = "revert"
	eventLoad   = "load"
	eventLoaded = "loaded"
)

var (
	stIdle    = string(journal.StateIdle)
	stLoading = string(journal.StateLoading)
	stSaving  = string(journal.StateSaving)
	stSaved   = string(journal.StateSaved)
	stLocal   = string(journal.StateLocal)
	stError   = string(journal.StateError)
)

// newStatus returns the save-status machine of one entity:
//
//	idle -> saving -> {saved | local | error} -> idle
//	idle -> loading -> idle
func newStatus() *fsm.FSM {
	return fsm.NewFSM(
		stIdle,
		fsm.Events{
			{Name: eventSave, Src: []string{stIdle, stLoading, stSaving, stSaved, stLocal, stError}, Dst: stSaving},
			{Name: eventSaved, Src: []string{stSaving}, Dst: stSaved},
			{Name: eventLocal, Src: []string{stSaving}, Dst: stLocal},
			{Name: eventFail, Src: []string{stSaving}, Dst: stError},
			{Name: eventRevert, Src: []string{stSaved, stLocal, stError}, Dst: stIdle},
			{Name: eventLoad, Src: []string{stIdle}, Dst: stLoading},
			{Name: eventLoaded, Src: []string{stLoading}, Dst: stIdle},
		},
		fsm.Callbacks{},
	)
}

// fire applies event and reports whether the state changed. An event that is
// a no-op or not valid from the current state is ignored.
func fire(ctx context.Context, f *fsm.FSM, event string) bool {
	return f.Event(ctx, event) == nil
}
