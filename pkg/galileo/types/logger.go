package types

// Logger is the node-wide logging contract every component (router,
// reactor, query table, coordinator) is handed at construction time. Any
// backend can satisfy it; definition.NewDefaultLogger wires the one this
// module ships with.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
}
