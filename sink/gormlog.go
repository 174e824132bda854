package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hugolhafner/go-ingest/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*gormLogger)(nil)

type gormLogger struct {
	l     logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// NewGormLogger bridges gorm's logger to l. Statements are logged at debug,
// slow statements at warn and failures at error.
func NewGormLogger(l logger.Logger, slow time.Duration) gormlogger.Interface {
	return &gormLogger{
		l:     l.With("component", "gorm"),
		level: mapToGormLevel(l.Level()),
		slow:  slow,
	}
}

func mapToGormLevel(level logger.LogLevel) gormlogger.LogLevel {
	switch level {
	case logger.DebugLevel:
		return gormlogger.Info
	case logger.InfoLevel, logger.WarnLevel:
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Info {
		g.l.Info(fmt.Sprintf(msg, data...))
	}
}

func (g *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.l.Warn(fmt.Sprintf(msg, data...))
	}
}

func (g *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Error {
		g.l.Error(fmt.Sprintf(msg, data...))
	}
}

func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		g.l.Error("SQL failed", "error", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case g.slow > 0 && elapsed > g.slow && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.l.Warn("Slow SQL", "elapsed", elapsed, "threshold", g.slow, "rows", rows, "sql", sql)
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.l.Debug("SQL", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
