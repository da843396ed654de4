package cparse

import "strings"

// PeekDirectives exposes scanDirectives to callers that must choose which
// *symtab.Scope to parse into before calling Parse — Parse reports the
// same two values in its Result, but only once a scope has already been
// committed to, which is too late for a caller like Load that routes a
// file's declarations by its own FFI_SCOPE directive.
func PeekDirectives(src string) (scopeName, lib string) {
	return scanDirectives(src)
}

// scanDirectives textually pre-scans src for the two recognized
// preprocessor directives that carry meaning to this engine (spec.md §4.3):
//
//	#define FFI_SCOPE "name"
//	#define FFI_LIB   "path"
//
// Every other `#...` line is left untouched; the scanner (scanner.go)
// discards them wholesale once tokenizing begins. Running this pass
// textually, ahead of tokenizing, avoids needing a real preprocessor merely
// to recognize two fixed spellings.
func scanDirectives(src string) (scopeName, lib string) {
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}
		body := strings.TrimSpace(line[1:])
		if !strings.HasPrefix(body, "define") {
			continue
		}
		body = strings.TrimSpace(body[len("define"):])

		switch {
		case strings.HasPrefix(body, "FFI_SCOPE"):
			if v, ok := extractStringLiteral(body[len("FFI_SCOPE"):]); ok {
				scopeName = v
			}
		case strings.HasPrefix(body, "FFI_LIB"):
			if v, ok := extractStringLiteral(body[len("FFI_LIB"):]); ok {
				lib = v
			}
		}
	}
	return scopeName, lib
}

// extractStringLiteral pulls the first "..."-quoted literal out of s.
func extractStringLiteral(s string) (string, bool) {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return "", false
	}
	return s[start+1 : start+1+end], true
}
