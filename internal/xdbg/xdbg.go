//go:build ffidebug

// Package xdbg includes debugging helpers for the engine. It is built with
// the ffidebug tag; with it absent, xdbg_off.go supplies the same surface
// as a set of no-ops, so callers never branch on the tag themselves.
package xdbg

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/timandy/routine"
)

// Enabled is true when the engine is built with the ffidebug tag.
const Enabled = true

var (
	logPattern *regexp.Regexp
)

func init() {
	flag.Func("goffi.logfilter", "regexp to filter debug logs by", func(s string) (err error) {
		logPattern, err = regexp.Compile(s)
		return err
	})
}

// Log prints debugging information to stderr, prefixed with the calling
// package/file/line and goroutine id.
func Log(operation, format string, args ...any) {
	pc, file, line, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	name := fn.Name()
	if slash := strings.LastIndex(name, "/"); slash >= 0 {
		name = name[slash+1:]
	}
	pkg := name
	if dot := strings.Index(pkg, "."); dot >= 0 {
		pkg = pkg[:dot]
	}

	buf := new(strings.Builder)
	fmt.Fprintf(buf, "%s/%s:%d [g%04d] %s: ", pkg, filepath.Base(file), line, routine.Goid(), operation)
	fmt.Fprintf(buf, format, args...)

	if logPattern != nil && !logPattern.MatchString(buf.String()) {
		return
	}
	buf.WriteByte('\n')
	_, _ = os.Stderr.WriteString(buf.String())
}

// Assert panics if cond is false. Only present when Enabled.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("goffi: internal assertion failed: "+format, args...))
	}
}

// Value holds a T that only exists when Enabled; when not, its xdbg_off.go
// counterpart compiles it away to an empty struct.
type Value[T any] struct{ x T }

// Get returns a pointer to the held value.
func (v *Value[T]) Get() *T { return &v.x }

// Stack is like runtime/debug.Stack, but skips skip frames and uses a
// terser one-frame-per-line format.
func Stack(skip int) string {
	var out strings.Builder
	trace := make([]uintptr, 32)
	for {
		n := runtime.Callers(skip, trace)
		if n < len(trace) {
			trace = trace[:n]
			break
		}
		trace = make([]uintptr, len(trace)*2)
	}
	frames := runtime.CallersFrames(trace)
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&out, "- %-24v 0x%x+0x%-4x %v:%v\n",
			filepath.Base(frame.Function)+"()", frame.Entry, frame.PC-frame.Entry,
			frame.File, frame.Line)
		if !more {
			break
		}
	}
	return out.String()
}
