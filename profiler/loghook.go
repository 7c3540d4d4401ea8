package profiler

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/cachehit/collect"
	"github.com/sarchlab/cachehit/sites"
)

// logHook prints registry and collector events.
type logHook struct {
	logger *log.Logger
}

func (h *logHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case sites.HookPosSiteDiscovered:
		h.logger.Printf("Site found : %s", ctx.Item.(*sites.Site).Name())
	case sites.HookPosRegionStart:
		site := ctx.Item.(*sites.Site)
		h.logger.Printf("start %s (activation %d)", site.Name(), site.ExecutionCount())
	case sites.HookPosRegionStop:
		site := ctx.Item.(*sites.Site)
		act := ctx.Detail.(sites.Activation)
		h.logger.Printf("stop %s (activation %d, %d accesses)",
			site.Name(), act.Index, act.Stats[0].Total())
	case collect.HookPosFlush:
		info := ctx.Item.(collect.FlushInfo)
		if info.Trigger == collect.TriggerStoreFull {
			h.logger.Printf("buffer is full, simulating...")
		}
		h.logger.Printf("drained %d lines from %d stores (%s)",
			info.Lines, info.Stores, info.Trigger)
	}
}
