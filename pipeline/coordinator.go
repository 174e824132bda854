package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hugolhafner/go-ingest/entity"
	"github.com/hugolhafner/go-ingest/logger"
	"github.com/hugolhafner/go-ingest/schema"
	"golang.org/x/sync/errgroup"
)

// Coordinator runs the pipelines in dependency tiers. Within a cycle every
// pipeline of a tier runs concurrently, and a tier starts only after the
// previous one finished, so reference rows written in a cycle are visible
// to the facts resolved later in the same cycle.
type Coordinator struct {
	pipelines []*Pipeline
	tiers     [][]*Pipeline
	config    CoordinatorConfig
	logger    logger.Logger
}

func NewCoordinator(pipelines []*Pipeline, opts ...CoordinatorOption) (*Coordinator, error) {
	cfg := defaultCoordinatorConfig()
	for _, opt := range opts {
		opt.applyCoordinator(&cfg)
	}

	if len(pipelines) == 0 {
		return nil, errors.New("no pipelines to coordinate")
	}

	byTopic := make(map[string]*Pipeline, len(pipelines))
	handlers := make([]schema.Handler, 0, len(pipelines))
	for _, p := range pipelines {
		if _, dup := byTopic[p.Topic()]; dup {
			return nil, fmt.Errorf("%w: %s", schema.ErrDuplicateTopic, p.Topic())
		}
		byTopic[p.Topic()] = p
		handlers = append(handlers, p.Handler())
	}

	grouped, err := schema.Tiers(handlers, cfg.Ordered)
	if err != nil {
		return nil, err
	}

	tiers := make([][]*Pipeline, len(grouped))
	for i, tier := range grouped {
		for _, h := range tier {
			tiers[i] = append(tiers[i], byTopic[h.Topic()])
		}
	}

	return &Coordinator{
		pipelines: pipelines,
		tiers:     tiers,
		config:    cfg,
		logger:    cfg.Logger.With("component", "coordinator"),
	}, nil
}

// Tiers returns the topics of each tier in execution order.
func (c *Coordinator) Tiers() [][]string {
	out := make([][]string, len(c.tiers))
	for i, tier := range c.tiers {
		for _, p := range tier {
			out[i] = append(out[i], p.Topic())
		}
	}
	return out
}

func (c *Coordinator) Pipelines() []*Pipeline {
	return c.pipelines
}

// Cycle runs one batch cycle of every live pipeline, tier by tier.
// Cancellation is honored between tiers; a tier that started always
// finishes its writes. A pipeline whose dependency is left with an
// unwritten batch sits the cycle out, so its facts are not resolved
// against reference rows that are about to be written.
func (c *Coordinator) Cycle(ctx context.Context) ([]BatchResult, error) {
	results := make([]BatchResult, 0, len(c.pipelines))
	deferred := make(map[entity.Kind]bool)

	for _, tier := range c.tiers {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		tierResults := make([]BatchResult, len(tier))
		var g errgroup.Group
		for i, p := range tier {
			if dep, ok := blockedBy(p, deferred); ok {
				tierResults[i] = BatchResult{
					Topic: p.Topic(), Table: p.handler.Table().Name, State: StateIdle, Deferred: true,
				}
				c.logger.Debug("Pipeline deferred, dependency not written", "topic", p.Topic(), "dependency", dep)
				continue
			}

			g.Go(
				func() error {
					res, err := p.RunCycle(ctx)
					tierResults[i] = res
					if errors.Is(err, ErrHalted) {
						return nil
					}
					return err
				},
			)
		}

		err := g.Wait()
		for i, res := range tierResults {
			if res.Deferred || res.State == StatePartiallyRejected {
				deferred[tier[i].Handler().Kind()] = true
			}
		}
		results = append(results, tierResults...)
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// Run cycles until ctx is cancelled or every pipeline halted. It returns
// nil on cancellation and ErrHalted when nothing is left running.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("Coordinator started", "pipelines", len(c.pipelines), "tiers", c.Tiers())
	defer c.logger.Info("Coordinator stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		results, err := c.Cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if halted := c.Halted(); len(halted) == len(c.pipelines) {
			c.logger.Error("All pipelines halted", "topics", halted)
			return ErrHalted
		}

		if idle(results) {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.config.IdleInterval):
			}
		}
	}
}

// Halted returns the topics whose pipelines stopped, sorted.
func (c *Coordinator) Halted() []string {
	var out []string
	for _, p := range c.pipelines {
		if p.Halted() {
			out = append(out, p.Topic())
		}
	}
	sort.Strings(out)
	return out
}

func (c *Coordinator) Close() {
	for _, p := range c.pipelines {
		p.Close()
	}
}

func blockedBy(p *Pipeline, deferred map[entity.Kind]bool) (entity.Kind, bool) {
	for _, dep := range p.Handler().DependsOn() {
		if dep != p.Handler().Kind() && deferred[dep] {
			return dep, true
		}
	}
	return "", false
}

func idle(results []BatchResult) bool {
	for _, r := range results {
		if r.State != StateIdle && r.State != StateHalted {
			return false
		}
	}
	return true
}
