package spider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"freehp/internal/shared/logger"
	"freehp/proxypool/model"
	"freehp/proxypool/scraper"
)

// DefaultMaxAttempts is the number of fetch attempts per URL and pass.
const DefaultMaxAttempts = 3

// AddressSink 接收抓取到的 "host:port" 地址。
// 每次调用携带一个页面上找到的全部地址；不同分组的任务可能并发调用 Receive，
// 实现者自己负责同步。返回的错误会结束调用它的那个分组任务。
type AddressSink interface {
	Receive(addrs []string) error
}

// SinkFunc adapts a function to AddressSink.
type SinkFunc func(addrs []string) error

func (f SinkFunc) Receive(addrs []string) error { return f(addrs) }

// Finder 从一个页面中提取地址，*scraper.RuleSet 实现了它。
type Finder interface {
	FindProxies(url string, body []byte) []string
}

// Config holds the timing and request settings of a Spider.
type Config struct {
	UpdateTime time.Duration // 两次循环抓取之间的间隔
	Timeout    time.Duration // 单次请求超时
	SleepTime  time.Duration // 同一分组内两个 URL 之间的间隔
	Headers    http.Header
}

// FetchError 表示一次抓取尝试失败。
type FetchError struct {
	URL     string
	Attempt int
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (attempt %d): %v", e.URL, e.Attempt, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Spider 为每个页面分组驱动 "抓取 -> 重试 -> 提取 -> 回调" 的循环。
// initial 分组只抓取一遍，update 分组一直循环直到被取消。
type Spider struct {
	cfg         Config
	initial     []model.PageGroup
	update      []model.PageGroup
	finder      Finder
	fetcher     scraper.Fetcher
	clock       Clock
	maxAttempts int
	l           zerolog.Logger
}

// Option configures a Spider.
type Option func(*Spider)

// WithClock replaces the clock used for every sleep.
func WithClock(c Clock) Option {
	return func(s *Spider) { s.clock = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Spider) { s.l = l }
}

// WithMaxAttempts lowers the attempts per URL. n is clamped to 1..DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(s *Spider) {
		s.maxAttempts = min(max(n, 1), DefaultMaxAttempts)
	}
}

// New 创建一个 Spider。分组和规则在启动时构造好后以不可变值传入。
func New(cfg Config, initial, update []model.PageGroup, finder Finder, fetcher scraper.Fetcher, opts ...Option) *Spider {
	s := &Spider{
		cfg:         cfg,
		initial:     initial,
		update:      update,
		finder:      finder,
		fetcher:     fetcher,
		clock:       SystemClock{},
		maxAttempts: DefaultMaxAttempts,
		l:           logger.WithComponent("ProxyPool/Spider"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind 把每个分组注册为 d 上的一个任务，并返回注册的任务数。
func (s *Spider) Bind(d Driver, sink AddressSink) int {
	n := 0
	for i, g := range s.initial {
		if g.Len() == 0 {
			continue
		}
		g := g // go1.21: per-iteration copy for the async closure
		d.Go(fmt.Sprintf("initial#%d/%s", i, g.Host()), func(ctx context.Context) error {
			return s.harvest(ctx, g, sink)
		})
		n++
	}
	for i, g := range s.update {
		if g.Len() == 0 {
			continue
		}
		g := g // go1.21: per-iteration copy for the async closure
		d.Go(fmt.Sprintf("update#%d/%s", i, g.Host()), func(ctx context.Context) error {
			return s.harvestRegularly(ctx, g, sink)
		})
		n++
	}
	s.l.Info().Int("initial_groups", len(s.initial)).Int("update_groups", len(s.update)).
		Int("tasks", n).Msg("Spider bound.")
	return n
}

// harvestRegularly 循环抓取一个分组，每遍之间等待 UpdateTime，直到 ctx 结束或回调出错。
func (s *Spider) harvestRegularly(ctx context.Context, g model.PageGroup, sink AddressSink) error {
	for {
		if err := s.harvest(ctx, g, sink); err != nil {
			return err
		}
		if err := s.clock.Sleep(ctx, s.cfg.UpdateTime); err != nil {
			return err
		}
	}
}

// harvest 按固定顺序逐个抓取分组中的 URL。单个 URL 失败不会中断这一遍。
func (s *Spider) harvest(ctx context.Context, g model.PageGroup, sink AddressSink) error {
	l := s.l.With().Str("pass_id", uuid.NewString()).Str("host", g.Host()).Logger()
	l.Info().Int("urls", g.Len()).Msg("Harvest pass started.")

	found := 0
	for i := 0; i < g.Len(); i++ {
		if i > 0 {
			if err := s.clock.Sleep(ctx, s.cfg.SleepTime); err != nil {
				return err
			}
		}

		u := g.URL(i)
		page, err := s.fetch(ctx, l, u)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.Warn().Err(err).Str("url", u).Int("attempts", s.maxAttempts).
				Msg("All attempts failed, skipping page for this pass.")
			continue
		}

		addrs := s.finder.FindProxies(page.URL, page.Body)
		l.Debug().Str("url", u).Str("resolved_url", page.URL).Int("count", len(addrs)).
			Msg("Found proxies on page.")
		if len(addrs) == 0 {
			continue
		}
		found += len(addrs)
		if err := sink.Receive(addrs); err != nil {
			return fmt.Errorf("address sink failed on %d addresses from %s: %w", len(addrs), u, err)
		}
	}

	l.Info().Int("found", found).Msg("Harvest pass finished.")
	return nil
}

// fetch 最多尝试 maxAttempts 次，失败后立即重试，不做退避。
func (s *Spider) fetch(ctx context.Context, l zerolog.Logger, u string) (*scraper.Page, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		page, err := s.fetcher.Fetch(ctx, u, s.cfg.Headers, s.cfg.Timeout)
		if err == nil && page != nil {
			return page, nil
		}
		if err == nil {
			err = fmt.Errorf("empty response")
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = &FetchError{URL: u, Attempt: attempt, Err: err}
		l.Warn().Err(err).Str("url", u).Int("attempt", attempt).Msg("Failed to fetch page.")
	}
	return nil, lastErr
}
