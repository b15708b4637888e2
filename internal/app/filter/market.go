package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/humbleledger/internal/infra/config"
)

// MarketFilter checks if the picks are available in the configured market.
type MarketFilter struct {
	market string
}

// NewMarketFilter creates a new MarketFilter with the specified market.
func NewMarketFilter(market string) *MarketFilter {
	return &MarketFilter{market: market}
}

func (f *MarketFilter) Name() string {
	return "market"
}

func (f *MarketFilter) Description() string {
	return "Checks if the submitted songs are available in the configured market"
}

func (f *MarketFilter) ReturnCodes() []string {
	return []string{"market_restriction"}
}

func (f *MarketFilter) ValidateConfig(settings map[string]any) error {
	var cfg struct {
		Market string `mapstructure:"market"`
	}
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	f.market = cfg.Market
	return nil
}

func (f *MarketFilter) AppliesTo(target string) bool {
	return target != config.TargetAlbumClub
}

func (f *MarketFilter) Check(ctx context.Context, s Submission) Result {
	if f.market == "" {
		return Accept()
	}

	for _, t := range s.Picks() {
		if !t.IsAvailableInMarket(f.market) {
			return Reject("market_restriction")
		}
	}
	return Accept()
}

func init() {
	Register("market", func() Filter {
		return &MarketFilter{}
	})
}
