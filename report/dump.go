package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/cachehit/cache"
	"github.com/sarchlab/cachehit/collect"
)

// LineDumper is a collector hook that writes every merged cache line in hex,
// one per line, and marks drains caused by a full store.
type LineDumper struct {
	w *bufio.Writer
}

// NewLineDumper creates a LineDumper writing to w. Call Flush when done.
func NewLineDumper(w io.Writer) *LineDumper {
	return &LineDumper{w: bufio.NewWriter(w)}
}

// Func implements sim.Hook.
func (d *LineDumper) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case collect.HookPosLineMerged:
		_, _ = fmt.Fprintf(d.w, "%x\n", uint64(ctx.Item.(cache.LineID)))
	case collect.HookPosFlush:
		if ctx.Item.(collect.FlushInfo).Trigger == collect.TriggerStoreFull {
			_, _ = fmt.Fprintln(d.w, "buffer is full, simulating...")
		}
	}
}

// Flush writes any buffered output.
func (d *LineDumper) Flush() error {
	return d.w.Flush()
}
