package generate

import (
	"context"
	"log/slog"
)

// NearDuplicateGuard rejects variations that are semantically too close to
// text already seen for the current phrase.
type NearDuplicateGuard interface {
	// Near reports whether text is within the guard's distance of anything added.
	Near(ctx context.Context, text string) bool
	// Add records text as seen.
	Add(ctx context.Context, text string)
	// Close releases per-phrase resources.
	Close()
}

// Collector accumulates distinct cleaned variations for one source phrase.
type Collector struct {
	source   string
	target   int
	accepted []string
	seen     map[string]bool
	guard    NearDuplicateGuard

	// OnAccept is called once for every newly accepted variation.
	OnAccept func(variation string)
}

// NewCollector creates a collector for source that stops accepting at target members.
// guard may be nil.
func NewCollector(ctx context.Context, source string, target int, guard NearDuplicateGuard) *Collector {
	if guard != nil {
		guard.Add(ctx, source)
	}
	return &Collector{
		source: source,
		target: target,
		seen:   make(map[string]bool, target),
		guard:  guard,
	}
}

// Offer cleans every raw candidate and accepts the qualifying ones.
// It returns the number of newly accepted variations.
func (c *Collector) Offer(ctx context.Context, raw []string) int {
	added := 0
	for _, r := range raw {
		variation, ok := Clean(r)
		if !ok {
			slog.Debug("candidate rejected", "raw", r)
			continue
		}
		if c.Full() || variation == c.source || c.seen[variation] {
			continue
		}
		if c.guard != nil && c.guard.Near(ctx, variation) {
			slog.Debug("near duplicate rejected", "variation", variation)
			continue
		}
		c.seen[variation] = true
		c.accepted = append(c.accepted, variation)
		if c.guard != nil {
			c.guard.Add(ctx, variation)
		}
		added++

		slog.Info("variation accepted", "phrase", c.source, "variation", variation)
		if c.OnAccept != nil {
			c.OnAccept(variation)
		}
	}
	return added
}

// Len returns the number of accepted variations.
func (c *Collector) Len() int { return len(c.accepted) }

// Full reports whether the target has been reached.
func (c *Collector) Full() bool { return len(c.accepted) >= c.target }

// Variations returns a copy of the accepted variations in acceptance order.
func (c *Collector) Variations() []string {
	out := make([]string, len(c.accepted))
	copy(out, c.accepted)
	return out
}

// Close releases the guard, if any.
func (c *Collector) Close() {
	if c.guard != nil {
		c.guard.Close()
	}
}
