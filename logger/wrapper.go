package logger

// Contextual is implemented by bases that can bind fields natively (zap does).
type Contextual interface {
	WithFields(kv ...any) Base
}

type LevelWrapper struct {
	Base
}

func WrapLogger(l Base) Logger {
	return &LevelWrapper{l}
}

func (w *LevelWrapper) Debug(msg string, kv ...any) {
	w.Log(DebugLevel, msg, kv...)
}

func (w *LevelWrapper) Info(msg string, kv ...any) {
	w.Log(InfoLevel, msg, kv...)
}

func (w *LevelWrapper) Warn(msg string, kv ...any) {
	w.Log(WarnLevel, msg, kv...)
}

func (w *LevelWrapper) Error(msg string, kv ...any) {
	w.Log(ErrorLevel, msg, kv...)
}

func (w *LevelWrapper) With(kv ...any) Logger {
	if len(kv) == 0 {
		return w
	}

	if c, ok := w.Base.(Contextual); ok {
		return WrapLogger(c.WithFields(kv...))
	}

	return WrapLogger(&boundBase{Base: w.Base, kv: kv})
}

// boundBase prepends fixed key/value pairs to every entry
type boundBase struct {
	Base
	kv []any
}

func (b *boundBase) Log(level LogLevel, msg string, kv ...any) {
	all := make([]any, 0, len(b.kv)+len(kv))
	all = append(all, b.kv...)
	all = append(all, kv...)
	b.Base.Log(level, msg, all...)
}
