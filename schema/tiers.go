package schema

import (
	"fmt"
	"sort"

	"github.com/hugolhafner/go-ingest/entity"
)

// Tiers groups handlers so that every handler comes after the handlers of
// the kinds it depends on. Dependencies on kinds with no handler in the set
// are ignored. When ordered is false all handlers share one tier.
func Tiers(handlers []Handler, ordered bool) ([][]Handler, error) {
	if len(handlers) == 0 {
		return nil, nil
	}
	if !ordered {
		return [][]Handler{append([]Handler(nil), handlers...)}, nil
	}

	byKind := make(map[entity.Kind][]Handler)
	for _, h := range handlers {
		byKind[h.Kind()] = append(byKind[h.Kind()], h)
	}

	placed := make(map[entity.Kind]bool)
	remaining := append([]Handler(nil), handlers...)
	var tiers [][]Handler

	for len(remaining) > 0 {
		var tier, next []Handler
		for _, h := range remaining {
			if ready(h, byKind, placed) {
				tier = append(tier, h)
			} else {
				next = append(next, h)
			}
		}

		if len(tier) == 0 {
			topics := make([]string, 0, len(next))
			for _, h := range next {
				topics = append(topics, h.Topic())
			}
			return nil, fmt.Errorf("%w: %v", ErrDependencyLoop, topics)
		}

		sort.Slice(tier, func(i, j int) bool { return tier[i].Topic() < tier[j].Topic() })
		for _, h := range tier {
			placed[h.Kind()] = true
		}
		tiers = append(tiers, tier)
		remaining = next
	}

	return tiers, nil
}

func ready(h Handler, byKind map[entity.Kind][]Handler, placed map[entity.Kind]bool) bool {
	for _, dep := range h.DependsOn() {
		if dep == h.Kind() {
			continue
		}
		if _, subscribed := byKind[dep]; subscribed && !placed[dep] {
			return false
		}
	}
	return true
}
