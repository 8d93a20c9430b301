// Package testlog provides a types.Logger that routes every call
// through testing.T.Logf, the same role the teacher's test package
// gives its TestInvoker/UnityCluster helpers: shared test scaffolding,
// not shipped in the public API.
package testlog

import "testing"

// T backs types.Logger with t.Logf, so failures surface inline with the
// rest of a test's output instead of on stderr.
type T struct {
	t *testing.T
}

func New(t *testing.T) *T { return &T{t: t} }

func (l *T) Info(v ...interface{})                 { l.t.Log(v...) }
func (l *T) Infof(format string, v ...interface{}) { l.t.Logf(format, v...) }
func (l *T) Warn(v ...interface{})                 { l.t.Log(v...) }
func (l *T) Warnf(format string, v ...interface{}) { l.t.Logf(format, v...) }
func (l *T) Error(v ...interface{})                { l.t.Log(v...) }
func (l *T) Errorf(format string, v ...interface{}) { l.t.Logf(format, v...) }
func (l *T) Debug(v ...interface{})                 { l.t.Log(v...) }
func (l *T) Debugf(format string, v ...interface{}) { l.t.Logf(format, v...) }
func (l *T) Fatal(v ...interface{})                 { l.t.Fatal(v...) }
func (l *T) Fatalf(format string, v ...interface{}) { l.t.Fatalf(format, v...) }
