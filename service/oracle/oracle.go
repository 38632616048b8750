package oracle

import (
	"context"
	"strconv"
	"time"

	"margin/core"
	"margin/pkg/margin"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"
)

// Config oracle options
type Config struct {
	// how long a fetched price is served from cache, validity is checked on every read
	CacheTTL time.Duration
	Now      func() time.Time
}

type priceOracle struct {
	feed  core.IPriceFeed
	cache gcache.Cache
	sf    *singleflight.Group
	cfg   Config
}

// New validated, cached price oracle over feed
func New(feed core.IPriceFeed, cfg Config) core.IPriceOracle {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &priceOracle{
		feed:  feed,
		cache: gcache.New(2048).LRU().Build(),
		sf:    &singleflight.Group{},
		cfg:   cfg,
	}
}

func (s *priceOracle) GetPrice(ctx context.Context, marketID uint64) (*core.Price, error) {
	price, err := s.fetch(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if err := margin.Require(price.Value.IsPositive(), core.ErrInvalidPrice, "oracle/price-positive"); err != nil {
		return nil, err
	}

	if err := margin.Require(price.IsValidAt(s.cfg.Now()), core.ErrStalePrice, "oracle/price-fresh"); err != nil {
		s.cache.Remove(marketID)
		return nil, err
	}

	return price, nil
}

func (s *priceOracle) fetch(ctx context.Context, marketID uint64) (*core.Price, error) {
	if s.cfg.CacheTTL > 0 {
		if v, err := s.cache.Get(marketID); err == nil {
			if price, ok := v.(*core.Price); ok {
				return price, nil
			}
		}
	}

	v, err, _ := s.sf.Do(strconv.FormatUint(marketID, 10), func() (interface{}, error) {
		price, err := s.feed.Latest(ctx, marketID)
		if err != nil {
			return nil, err
		}

		if s.cfg.CacheTTL > 0 {
			_ = s.cache.SetWithExpire(marketID, price, s.cfg.CacheTTL)
		}

		return price, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*core.Price), nil
}
