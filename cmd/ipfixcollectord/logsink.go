package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/go-logr/logr"
)

// stdLogSink is a minimal logr.LogSink backed by the standard library's
// log package. The teacher depends on github.com/go-logr/logr only as an
// interface - a library has no business picking a concrete sink for its
// caller - so the binary is where one gets chosen. A level name below the
// configured threshold is dropped; "error" is always emitted via Error.
type stdLogSink struct {
	name      string
	keyValues []interface{}
	level     int
}

// level ordering: debug=0, info=1, error is unconditional
func levelThreshold(name string) int {
	switch name {
	case "debug":
		return 0
	case "error":
		return 2
	default:
		return 1
	}
}

func newStdLogSink(levelName string) logr.LogSink {
	return &stdLogSink{level: levelThreshold(levelName)}
}

func (s *stdLogSink) Init(info logr.RuntimeInfo) {}

func (s *stdLogSink) Enabled(level int) bool {
	// logr's V(level): 0 is the default/info level, higher numbers are more
	// verbose (debug-ish). V(0) ranks as info, anything above it as debug,
	// and the message is kept only if that rank reaches the threshold.
	severity := 0 // debug
	if level == 0 {
		severity = 1 // info
	}
	return severity >= s.level
}

func (s *stdLogSink) Info(level int, msg string, keysAndValues ...interface{}) {
	if !s.Enabled(level) {
		return
	}
	log.Print(s.format("INFO", msg, keysAndValues))
}

func (s *stdLogSink) Error(err error, msg string, keysAndValues ...interface{}) {
	kvs := append([]interface{}{}, keysAndValues...)
	kvs = append(kvs, "error", err)
	log.Print(s.format("ERROR", msg, kvs))
}

func (s *stdLogSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	return &stdLogSink{
		name:      s.name,
		level:     s.level,
		keyValues: append(append([]interface{}{}, s.keyValues...), keysAndValues...),
	}
}

func (s *stdLogSink) WithName(name string) logr.LogSink {
	newName := name
	if s.name != "" {
		newName = s.name + "." + name
	}
	return &stdLogSink{name: newName, level: s.level, keyValues: s.keyValues}
}

func (s *stdLogSink) format(severity, msg string, keysAndValues []interface{}) string {
	var b strings.Builder
	b.WriteString(severity)
	if s.name != "" {
		b.WriteString(" [")
		b.WriteString(s.name)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(msg)

	all := append(append([]interface{}{}, s.keyValues...), keysAndValues...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
	}
	return b.String()
}

var _ logr.LogSink = (*stdLogSink)(nil)
