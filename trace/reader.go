package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/cachehit/collect"
)

// ErrSyntax is wrapped by every ParseError.
var ErrSyntax = errors.New("invalid trace syntax")

// ParseError reports a malformed trace line.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d %q: %s", e.Line, e.Text, e.Msg)
}

// Unwrap returns ErrSyntax.
func (e *ParseError) Unwrap() error {
	return ErrSyntax
}

// Reader parses events from a trace.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader creates a Reader.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &Reader{sc: sc}
}

// Next returns the next event, or io.EOF after the last one.
func (r *Reader) Next() (Event, error) {
	for r.sc.Scan() {
		r.line++

		text := strings.TrimSpace(r.sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		ev, msg := parseLine(strings.Fields(text))
		if msg != "" {
			return Event{}, &ParseError{Line: r.line, Text: text, Msg: msg}
		}
		ev.Line = r.line

		return ev, nil
	}

	if err := r.sc.Err(); err != nil {
		return Event{}, fmt.Errorf("failed to read trace: %w", err)
	}

	return Event{}, io.EOF
}

func parseLine(f []string) (Event, string) {
	var ev Event

	switch f[0] {
	case "thread-start", "thread-exit":
		if len(f) != 2 {
			return ev, "want <tid>"
		}
		tid, err := strconv.ParseUint(f[1], 10, 32)
		if err != nil {
			return ev, "bad thread id"
		}
		ev.Kind = KindThreadStart
		if f[0] == "thread-exit" {
			ev.Kind = KindThreadExit
		}
		ev.Thread = collect.ThreadID(tid)

	case "begin":
		if len(f) < 3 {
			return ev, "want <handle> <name>"
		}
		ev.Kind = KindBegin
		ev.Handle = f[1]
		ev.Name = strings.Join(f[2:], " ")

	case "end":
		if len(f) != 2 {
			return ev, "want <handle>"
		}
		ev.Kind = KindEnd
		ev.Handle = f[1]

	case "access":
		if len(f) != 4 {
			return ev, "want <tid> <hex-addr> <size>"
		}
		tid, err := strconv.ParseUint(f[1], 10, 32)
		if err != nil {
			return ev, "bad thread id"
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(f[2], "0x"), 16, 64)
		if err != nil {
			return ev, "bad address"
		}
		size, err := strconv.ParseUint(f[3], 10, 32)
		if err != nil {
			return ev, "bad size"
		}
		ev.Kind = KindAccess
		ev.Thread = collect.ThreadID(tid)
		ev.Addr = addr
		ev.Size = uint32(size)

	case "task-begin", "task-end":
		if len(f) < 2 {
			return ev, "want <name>"
		}
		ev.Kind = KindTaskBegin
		if f[0] == "task-end" {
			ev.Kind = KindTaskEnd
		}
		ev.Name = strings.Join(f[1:], " ")

	default:
		return ev, fmt.Sprintf("unknown event %q", f[0])
	}

	return ev, ""
}

// Writer writes events in trace syntax.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one event.
func (w *Writer) Write(ev Event) error {
	_, err := fmt.Fprintln(w.w, ev.String())
	return err
}

// Flush writes any buffered output.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
