// Package trace reads instrumentation event traces and replays them against
// a profiler.
//
// A trace is a text file with one event per line. Blank lines and lines
// starting with # are skipped.
//
//	thread-start <tid>
//	thread-exit <tid>
//	begin <handle> <name>
//	end <handle>
//	access <tid> <hex-addr> <size>
//	task-begin <name>
//	task-end <name>
//
// A handle is any token naming one annotated call site; two begin events with
// the same handle activate the same site.
package trace

import (
	"fmt"

	"github.com/sarchlab/cachehit/collect"
)

// Kind is the type of an event.
type Kind int

// Event kinds.
const (
	KindThreadStart Kind = iota
	KindThreadExit
	KindBegin
	KindEnd
	KindAccess
	KindTaskBegin
	KindTaskEnd
)

var kindNames = map[Kind]string{
	KindThreadStart: "thread-start",
	KindThreadExit:  "thread-exit",
	KindBegin:       "begin",
	KindEnd:         "end",
	KindAccess:      "access",
	KindTaskBegin:   "task-begin",
	KindTaskEnd:     "task-end",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Event is one instrumentation event.
type Event struct {
	Kind Kind

	// Line is the line number in the trace, 0 for generated events.
	Line int

	Thread collect.ThreadID
	Handle string
	Name   string
	Addr   uint64
	Size   uint32
}

// String renders the event in trace syntax.
func (e Event) String() string {
	switch e.Kind {
	case KindThreadStart, KindThreadExit:
		return fmt.Sprintf("%s %d", e.Kind, e.Thread)
	case KindBegin:
		return fmt.Sprintf("begin %s %s", e.Handle, e.Name)
	case KindEnd:
		return fmt.Sprintf("end %s", e.Handle)
	case KindAccess:
		return fmt.Sprintf("access %d %x %d", e.Thread, e.Addr, e.Size)
	case KindTaskBegin, KindTaskEnd:
		return fmt.Sprintf("%s %s", e.Kind, e.Name)
	default:
		return e.Kind.String()
	}
}

// IsControl reports whether the event changes profiler state beyond one
// thread's accesses.
func (e Event) IsControl() bool {
	return e.Kind != KindAccess
}
