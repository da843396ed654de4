package xdbg

import (
	"fmt"
	"runtime"
	"strings"
)

// Unsupported returns an "unimplemented" error naming the calling function,
// for extension points this module deliberately leaves unimplemented
// (spec.md §9's disabled callback generation, for instance).
func Unsupported() error {
	pc, _, _, _ := runtime.Caller(1)
	return &errUnsupported{pc}
}

type errUnsupported struct{ pc uintptr }

func (e *errUnsupported) Error() string {
	name := runtime.FuncForPC(e.pc).Name()
	if name == "" {
		return "goffi: unsupported operation"
	}
	if slash := strings.LastIndexByte(name, '/'); slash >= 0 {
		name = name[slash+1:]
	}
	return fmt.Sprintf("goffi: %s() is not supported", name)
}
