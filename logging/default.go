package logging

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// sink is shared by a logger and everything derived from it with WithFields,
// so SetLevel on any of them applies to all.
type sink struct {
	mu     sync.Mutex
	out    io.Writer // debug and info
	errOut io.Writer // warn and above
	level  Level
	stamp  bool
	exit   func(int)
}

// DefaultLogger writes one "[LEVEL] msg: err k=v ..." line per entry.
type DefaultLogger struct {
	sink   *sink
	fields Fields
}

// NewDefaultLogger logs everything to stderr with timestamps so command
// output on stdout stays clean.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		sink: &sink{
			out:    os.Stderr,
			errOut: os.Stderr,
			level:  InfoLevel,
			stamp:  true,
			exit:   os.Exit,
		},
	}
}

// NewWriterLogger logs every level to w without timestamps, and Fatal does
// not exit. Tests use it to capture pipeline logs.
func NewWriterLogger(w io.Writer, level Level) *DefaultLogger {
	return &DefaultLogger{
		sink: &sink{out: w, errOut: w, level: level, exit: func(int) {}},
	}
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields []Fields) {
	s := d.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if level < s.level {
		return
	}

	all := maps.Clone(d.fields)
	if all == nil {
		all = make(Fields)
	}
	for _, f := range fields {
		maps.Copy(all, f)
	}

	var b strings.Builder
	if s.stamp {
		b.WriteString(time.Now().Format("2006/01/02 15:04:05 "))
	}
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	if err != nil {
		fmt.Fprintf(&b, ": %v", err)
	}
	for _, k := range slices.Sorted(maps.Keys(all)) {
		fmt.Fprintf(&b, " %s=%v", k, all[k])
	}
	b.WriteByte('\n')

	w := s.out
	if level >= WarnLevel {
		w = s.errOut
	}
	io.WriteString(w, b.String())

	if level == FatalLevel {
		s.exit(1)
	}
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) { d.log(DebugLevel, nil, msg, fields) }
func (d *DefaultLogger) Info(msg string, fields ...Fields)  { d.log(InfoLevel, nil, msg, fields) }
func (d *DefaultLogger) Warn(msg string, fields ...Fields)  { d.log(WarnLevel, nil, msg, fields) }

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.log(FatalLevel, err, msg, fields)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	merged := maps.Clone(d.fields)
	if merged == nil {
		merged = make(Fields, len(fields))
	}
	maps.Copy(merged, fields)
	return &DefaultLogger{sink: d.sink, fields: merged}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := FieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.sink.mu.Lock()
	d.sink.level = level
	d.sink.mu.Unlock()
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
