package schema

import (
	"fmt"
	"sort"

	"github.com/hugolhafner/go-ingest/entity"
	"github.com/hugolhafner/go-ingest/serde"
)

// Registry maps topic names to their handlers. It is built once at startup
// and read-only afterwards.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

type Config struct {
	PayloadFormat    serde.Format
	TeamVenueDefault *string
	// TopicPrefix is prepended to every kind name to form its topic.
	TopicPrefix string
}

type Option func(*Config)

// WithPayloadFormat selects the wire encoding of every topic.
func WithPayloadFormat(f serde.Format) Option {
	return func(c *Config) {
		c.PayloadFormat = f
	}
}

// WithTeamVenueDefault sets the venue stored for teams first seen without one.
func WithTeamVenueDefault(venue string) Option {
	return func(c *Config) {
		c.TeamVenueDefault = &venue
	}
}

// WithTopicPrefix binds each kind to the topic prefix+kind, e.g.
// "football.teams".
func WithTopicPrefix(prefix string) Option {
	return func(c *Config) {
		c.TopicPrefix = prefix
	}
}

// Default returns a registry holding a handler for every entity kind,
// each bound to the topic named after the kind plus the optional prefix.
func Default(opts ...Option) *Registry {
	cfg := Config{PayloadFormat: serde.FormatJSON}
	for _, opt := range opts {
		opt(&cfg)
	}

	teams := NewSchema[entity.Team](entity.KindTeam, serde.For[entity.Team](cfg.PayloadFormat), teamRules())
	if cfg.TeamVenueDefault != nil {
		teams = teams.WithTable(teams.Table().WithDefault("venue", *cfg.TeamVenueDefault))
	}

	r := NewRegistry()
	r.mustRegister(withPrefix(teams, cfg.TopicPrefix))
	r.mustRegister(
		withPrefix(
			NewSchema[entity.Competition](
				entity.KindCompetition, serde.For[entity.Competition](cfg.PayloadFormat), competitionRules(),
			), cfg.TopicPrefix,
		),
	)
	r.mustRegister(
		withPrefix(
			NewSchema[entity.Match](
				entity.KindMatch, serde.For[entity.Match](cfg.PayloadFormat), matchRules(),
				entity.KindTeam, entity.KindCompetition,
			), cfg.TopicPrefix,
		),
	)
	r.mustRegister(
		withPrefix(
			NewSchema[entity.TopScorer](
				entity.KindTopScorer, serde.For[entity.TopScorer](cfg.PayloadFormat), topScorerRules(),
				entity.KindTeam, entity.KindCompetition,
			), cfg.TopicPrefix,
		),
	)
	r.mustRegister(
		withPrefix(
			NewSchema[entity.PlayerStat](
				entity.KindPlayerStat, serde.For[entity.PlayerStat](cfg.PayloadFormat), playerStatRules(),
				entity.KindTeam, entity.KindMatch,
			), cfg.TopicPrefix,
		),
	)
	r.mustRegister(
		withPrefix(
			NewSchema[entity.MatchPrediction](
				entity.KindMatchPrediction, serde.For[entity.MatchPrediction](cfg.PayloadFormat), matchPredictionRules(),
				entity.KindMatch,
			), cfg.TopicPrefix,
		),
	)
	r.mustRegister(
		withPrefix(
			NewSchema[entity.TeamFormation](
				entity.KindTeamFormation, serde.For[entity.TeamFormation](cfg.PayloadFormat), teamFormationRules(),
				entity.KindMatch, entity.KindTeam,
			), cfg.TopicPrefix,
		),
	)
	r.mustRegister(
		withPrefix(
			NewSchema[entity.BettingOdds](
				entity.KindBettingOdds, serde.For[entity.BettingOdds](cfg.PayloadFormat), bettingOddsRules(),
				entity.KindMatch,
			), cfg.TopicPrefix,
		),
	)

	return r
}

func (r *Registry) Register(h Handler) error {
	if _, exists := r.handlers[h.Topic()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTopic, h.Topic())
	}
	r.handlers[h.Topic()] = h
	return nil
}

func (r *Registry) mustRegister(h Handler) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(topic string) (Handler, error) {
	h, ok := r.handlers[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	return h, nil
}

// Topics returns the registered topic names in sorted order.
func (r *Registry) Topics() []string {
	topics := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

func withPrefix[T any, P recordPtr[T]](s *Schema[T, P], prefix string) *Schema[T, P] {
	if prefix == "" {
		return s
	}
	return s.WithTopic(prefix + s.Kind().String())
}
