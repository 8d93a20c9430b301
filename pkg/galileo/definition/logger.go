// Package definition holds the default implementations of the pinned
// collaborator interfaces (types.Logger, types.FS, types.Partitioner) —
// good enough to run a node without wiring in a production storage
// engine or partitioning strategy, same role as the teacher's
// definition package.
package definition

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

// DefaultLogger backs types.Logger with logrus: logrus's forced-color
// text formatter prints the level, fatih/color paints the message text of
// Warn (yellow), Error (red) and Fatal (bold red) calls, and go-colorable
// makes that safe on Windows consoles.
type DefaultLogger struct {
	entry *logrus.Entry
}

// NewDefaultLogger builds a DefaultLogger writing to stderr. debug
// toggles whether Debug/Debugf calls are emitted at all.
func NewDefaultLogger(debug bool) *DefaultLogger {
	l := logrus.New()
	l.Out = colorable.NewColorableStderr()
	l.Formatter = &logrus.TextFormatter{ForceColors: true, FullTimestamp: true}
	l.Level = logrus.InfoLevel
	if debug {
		l.Level = logrus.DebugLevel
	}
	return &DefaultLogger{entry: logrus.NewEntry(l)}
}

func (l *DefaultLogger) Info(v ...interface{})  { l.entry.Info(v...) }
func (l *DefaultLogger) Infof(f string, v ...interface{}) { l.entry.Infof(f, v...) }

func (l *DefaultLogger) Warn(v ...interface{})  { l.entry.Warn(color.YellowString(fmt.Sprint(v...))) }
func (l *DefaultLogger) Warnf(f string, v ...interface{}) {
	l.entry.Warn(color.YellowString(fmt.Sprintf(f, v...)))
}

func (l *DefaultLogger) Error(v ...interface{}) { l.entry.Error(color.RedString(fmt.Sprint(v...))) }
func (l *DefaultLogger) Errorf(f string, v ...interface{}) {
	l.entry.Error(color.RedString(fmt.Sprintf(f, v...)))
}

func (l *DefaultLogger) Debug(v ...interface{})  { l.entry.Debug(v...) }
func (l *DefaultLogger) Debugf(f string, v ...interface{}) { l.entry.Debugf(f, v...) }

func (l *DefaultLogger) Fatal(v ...interface{}) {
	l.entry.Error(color.New(color.FgRed, color.Bold).Sprint(v...))
	os.Exit(1)
}

func (l *DefaultLogger) Fatalf(f string, v ...interface{}) {
	l.entry.Error(color.New(color.FgRed, color.Bold).Sprintf(f, v...))
	os.Exit(1)
}
