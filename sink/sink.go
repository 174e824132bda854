// Package sink writes ingested records to the relational store with gorm.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/hugolhafner/go-ingest/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Logger          logger.Logger
	WriteTimeout    time.Duration
	SlowThreshold   time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Option func(*Config)

func WithLogger(l logger.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithWriteTimeout bounds each (table, batch) transaction. A timeout rolls
// the transaction back and is reported as a WriteError.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.WriteTimeout = d
		}
	}
}

func WithSlowThreshold(d time.Duration) Option {
	return func(c *Config) {
		c.SlowThreshold = d
	}
}

func WithPool(maxOpen, maxIdle int, maxLifetime time.Duration) Option {
	return func(c *Config) {
		c.MaxOpenConns = maxOpen
		c.MaxIdleConns = maxIdle
		c.ConnMaxLifetime = maxLifetime
	}
}

func defaultConfig() Config {
	return Config{
		Logger:        logger.NewNoopLogger(),
		WriteTimeout:  30 * time.Second,
		SlowThreshold: 500 * time.Millisecond,
		MaxOpenConns:  16,
		MaxIdleConns:  4,
	}
}

// DB is the relational sink shared by every pipeline.
type DB struct {
	db     *gorm.DB
	config Config
	logger logger.Logger
}

// Open connects to postgres.
func Open(dsn string, opts ...Option) (*DB, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	gdb, err := gorm.Open(
		postgres.Open(dsn), &gorm.Config{
			Logger: NewGormLogger(cfg.Logger, cfg.SlowThreshold),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return newDB(gdb, cfg), nil
}

// New wraps an existing gorm handle.
func New(gdb *gorm.DB, opts ...Option) *DB {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newDB(gdb, cfg)
}

func newDB(gdb *gorm.DB, cfg Config) *DB {
	return &DB{
		db:     gdb,
		config: cfg,
		logger: cfg.Logger.With("component", "sink"),
	}
}

// Gorm returns the underlying handle.
func (d *DB) Gorm() *gorm.DB {
	return d.db
}

// Migrate creates or updates every ingest table.
func (d *DB) Migrate(ctx context.Context) error {
	if err := d.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	d.logger.Info("Schema migrated", "tables", len(Models()))
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
