package manager

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"freehp/internal/shared/logger"
	"freehp/internal/shared/types"
	"freehp/proxypool/scraper"
	"freehp/proxypool/spider"
)

// Manager 是抓取模块的总控制器：把配置变成分组、规则和抓取器，并管理 Spider 的生命周期。
type Manager struct {
	spider *spider.Spider
	sink   spider.AddressSink

	tasks  *spider.TaskGroup
	done   chan struct{}
	err    error
	mu     sync.Mutex
	starts sync.Once
	stops  sync.Once
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	fetcher   scraper.Fetcher
	spiderOps []spider.Option
}

// WithFetcher replaces the fetcher chosen from fetch_backend.
func WithFetcher(f scraper.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithSpiderOptions passes extra options to the Spider, e.g. a fake clock.
func WithSpiderOptions(opts ...spider.Option) Option {
	return func(o *options) { o.spiderOps = append(o.spiderOps, opts...) }
}

// NewManager 创建并初始化管理器。所有配置错误都在这里返回，此时还没有任何任务启动。
func NewManager(cfg *types.Config, harvest *types.HarvestConf, sink spider.AddressSink, opts ...Option) (*Manager, error) {
	l := logger.WithComponent("ProxyPool/Manager")

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	initial, err := spider.GroupPages(harvest.InitialPages)
	if err != nil {
		return nil, fmt.Errorf("initial_pages: %w", err)
	}
	update, err := spider.GroupPages(harvest.UpdatePages)
	if err != nil {
		return nil, fmt.Errorf("update_pages: %w", err)
	}
	rules, err := scraper.RuleSetFromSpecs(harvest.ProxyRules)
	if err != nil {
		return nil, err
	}
	if rules.Len() == 0 && len(initial)+len(update) > 0 {
		l.Warn().Msg("No proxy_rules configured, pages will be fetched but nothing extracted.")
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher, err = newFetcher(cfg.SpiderConf)
		if err != nil {
			return nil, err
		}
	}

	headers := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	sc := spider.Config{
		UpdateTime: time.Duration(cfg.UpdateTime) * time.Second,
		Timeout:    time.Duration(cfg.Timeout) * time.Second,
		SleepTime:  time.Duration(cfg.SleepTime) * time.Second,
		Headers:    headers,
	}

	l.Info().
		Int("initial_groups", len(initial)).
		Int("update_groups", len(update)).
		Int("rules", rules.Len()).
		Str("fetch_backend", cfg.FetchBackend).
		Dur("update_time", sc.UpdateTime).
		Msg("Manager initialized.")

	return &Manager{
		spider: spider.New(sc, initial, update, rules, fetcher, o.spiderOps...),
		sink:   sink,
		done:   make(chan struct{}),
	}, nil
}

func newFetcher(cfg types.SpiderConf) (scraper.Fetcher, error) {
	switch cfg.FetchBackend {
	case "", "http":
		return scraper.NewHTTPFetcher(cfg.Proxy)
	case "colly":
		return scraper.NewCollyFetcher(cfg.Proxy), nil
	default:
		return nil, fmt.Errorf("unknown fetch_backend %q", cfg.FetchBackend)
	}
}

// Start 启动所有抓取任务。Done 在所有任务结束后关闭。
func (m *Manager) Start(ctx context.Context) {
	m.starts.Do(func() {
		l := logger.WithComponent("ProxyPool/Manager")
		m.tasks = spider.NewTaskGroup(ctx, logger.WithComponent("ProxyPool/Tasks"))
		n := m.spider.Bind(m.tasks, m.sink)
		l.Info().Int("tasks", n).Msg("Manager started.")

		go func() {
			err := m.tasks.Wait()
			m.mu.Lock()
			m.err = err
			m.mu.Unlock()
			close(m.done)
		}()
	})
}

// Done is closed once every task has returned.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Err returns the first task error after Done is closed.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Stop 取消所有任务并等待它们退出。
func (m *Manager) Stop() {
	// Stop before Start: mark as started so a later Start is a no-op.
	m.starts.Do(func() { close(m.done) })
	m.stops.Do(func() {
		if m.tasks == nil {
			return
		}
		m.tasks.Cancel()
		<-m.done
		logger.Info().Msg("ProxyPool Manager gracefully stopped.")
	})
}
