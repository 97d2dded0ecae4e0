// Package gamification derives reputation, tiers and badges from persisted
// contribution statistics.
package gamification

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed badges.yml
var catalogYAML []byte

// Metrics a badge threshold can apply to.
const (
	MetricPublishedSavoirs = "published_savoirs"
	MetricVotesReceived    = "votes_received"
	MetricWellRatedSavoirs = "well_rated_savoirs"
	MetricUpvotesReceived  = "upvotes_received"
	MetricVotesCast        = "votes_cast"
	MetricReputation       = "reputation"
)

// Badge is one catalog entry.
type Badge struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Icon        string `yaml:"icon" json:"icon"`
	Description string `yaml:"description" json:"description"`
	Metric      string `yaml:"metric" json:"metric"`
	Threshold   int64  `yaml:"threshold" json:"threshold"`
}

// Tier is a named reputation band.
type Tier struct {
	Name          string `yaml:"name" json:"name"`
	MinReputation int    `yaml:"min_reputation" json:"min_reputation"`
}

// ReputationRules weights the contribution statistics.
type ReputationRules struct {
	PerNetVote         int `yaml:"per_net_vote"`
	PerPublishedSavoir int `yaml:"per_published_savoir"`
	WellRatedApproval  int `yaml:"well_rated_approval"`
}

// Catalog is the parsed badge and tier configuration.
type Catalog struct {
	Badges     []Badge         `yaml:"badges"`
	Tiers      []Tier          `yaml:"tiers"`
	Reputation ReputationRules `yaml:"reputation"`
}

// Stats are the persisted aggregates badges are computed from.
type Stats struct {
	PublishedSavoirs  int64
	VotesReceived     int64
	UpvotesReceived   int64
	DownvotesReceived int64
	WellRatedSavoirs  int64
	VotesCast         int64
}

// Parse decodes a catalog and checks it for consistency.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode badge catalog: %w", err)
	}
	seen := make(map[string]bool, len(c.Badges))
	for _, b := range c.Badges {
		if b.ID == "" || b.Name == "" {
			return nil, fmt.Errorf("badge %q: id and name are required", b.ID)
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("badge %q declared twice", b.ID)
		}
		seen[b.ID] = true
		switch b.Metric {
		case MetricPublishedSavoirs, MetricVotesReceived, MetricWellRatedSavoirs,
			MetricUpvotesReceived, MetricVotesCast, MetricReputation:
		default:
			return nil, fmt.Errorf("badge %q: unknown metric %q", b.ID, b.Metric)
		}
	}
	if len(c.Tiers) == 0 {
		return nil, fmt.Errorf("badge catalog declares no tiers")
	}
	sort.Slice(c.Tiers, func(i, j int) bool { return c.Tiers[i].MinReputation < c.Tiers[j].MinReputation })
	return &c, nil
}

// Default is the embedded catalog. It panics at init on a malformed file.
var Default = mustParse(catalogYAML)

func mustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Score computes the reputation for stats, floored at zero.
func (c *Catalog) Score(s Stats) int {
	net := s.UpvotesReceived - s.DownvotesReceived
	score := int(net)*c.Reputation.PerNetVote + int(s.PublishedSavoirs)*c.Reputation.PerPublishedSavoir
	if score < 0 {
		return 0
	}
	return score
}

// TierFor returns the highest tier reached by reputation.
func (c *Catalog) TierFor(reputation int) Tier {
	tier := c.Tiers[0]
	for _, t := range c.Tiers {
		if reputation >= t.MinReputation {
			tier = t
		}
	}
	return tier
}

// Evaluate returns the ids of every badge earned, in catalog order.
func (c *Catalog) Evaluate(s Stats, reputation int) []string {
	earned := make([]string, 0, len(c.Badges))
	for _, b := range c.Badges {
		if metricValue(b.Metric, s, reputation) >= b.Threshold {
			earned = append(earned, b.ID)
		}
	}
	return earned
}

// Lookup returns the badge with the given id.
func (c *Catalog) Lookup(id string) (Badge, bool) {
	for _, b := range c.Badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

func metricValue(metric string, s Stats, reputation int) int64 {
	switch metric {
	case MetricPublishedSavoirs:
		return s.PublishedSavoirs
	case MetricVotesReceived:
		return s.VotesReceived
	case MetricWellRatedSavoirs:
		return s.WellRatedSavoirs
	case MetricUpvotesReceived:
		return s.UpvotesReceived
	case MetricVotesCast:
		return s.VotesCast
	case MetricReputation:
		return int64(reputation)
	}
	return 0
}
