package paging

import (
	"log"

	"github.com/sarchlab/pagesim/sim/hooking"
)

// EventLogger is a hook that prints what the MMU does, one line per event.
type EventLogger struct {
	*log.Logger
}

// NewEventLogger returns a new EventLogger which will write into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger

	return h
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosAdmit:
		p := ctx.Item.(Process)
		h.Printf("[ADMIT]  Process %d - %d bytes in %d blocks",
			p.ID, p.Size, ctx.Detail)
	case HookPosReject:
		p := ctx.Item.(Process)
		h.Printf("[REJECT] Process %d - %v", p.ID, ctx.Detail)
	case HookPosHit:
		h.Printf("[LOAD]   Page %s - Already in memory", ctx.Item)
	case HookPosFault:
		h.Printf("[LOAD]   Page %s", ctx.Item)

		if found, _ := ctx.Detail.(bool); !found {
			h.Printf("[LOAD]   Page %s - Not admitted", ctx.Item)
		}
	case HookPosLoaded:
		h.Printf("[LOAD]   Page %s - Success", ctx.Item)
	case HookPosEvict:
		h.Printf("[UNLOAD] Page %s", ctx.Item)
	case HookPosRemove:
		h.Printf("[REMOVE] Process %d - %d blocks", ctx.Item, ctx.Detail)
	}
}
