//go:build unit

package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hugolhafner/go-ingest/logger"
	mocklogger "github.com/hugolhafner/go-ingest/logger/mock"
	"gorm.io/gorm"
)

func TestGormLogger_Trace(t *testing.T) {
	t.Parallel()

	sql := func() (string, int64) { return "INSERT INTO teams ...", 2 }

	t.Run(
		"failure logs error", func(t *testing.T) {
			t.Parallel()
			l := mocklogger.New()
			g := NewGormLogger(l, time.Second)
			g.Trace(context.Background(), time.Now(), sql, errors.New("deadlock"))
			l.AssertCalledWithFields(t, logger.ErrorLevel, "SQL failed", "rows", int64(2))
		},
	)

	t.Run(
		"record not found is not an error", func(t *testing.T) {
			t.Parallel()
			l := mocklogger.New()
			g := NewGormLogger(l, time.Second)
			g.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
			l.AssertNotCalledWithMessage(t, "SQL failed")
		},
	)

	t.Run(
		"slow statement logs warn", func(t *testing.T) {
			t.Parallel()
			l := mocklogger.New()
			g := NewGormLogger(l, time.Millisecond)
			g.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
			l.AssertCalledWithLevelAndMessage(t, logger.WarnLevel, "Slow SQL")
			l.AssertNotCalledWithLevel(t, logger.ErrorLevel)
		},
	)

	t.Run(
		"info carries the bound component", func(t *testing.T) {
			t.Parallel()
			l := mocklogger.New()
			g := NewGormLogger(l, time.Second)
			g.Info(context.Background(), "migrated %d tables", 9)
			l.AssertCalled(t, logger.InfoLevel, "migrated 9 tables", "component", "gorm")
			l.AssertCalledWithMessage(t, "migrated 9 tables")
		},
	)
}
