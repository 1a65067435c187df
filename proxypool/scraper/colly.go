package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher 使用 colly 实现 Fetcher。
// 每次调用创建一个新的 collector，与 net/http 版本一样不在请求之间共享会话状态。
// 注意：colly 会按 Content-Type 声明的字符集把响应体转成 UTF-8。
type CollyFetcher struct {
	proxyURL string
}

// NewCollyFetcher 创建一个 CollyFetcher，proxyURL 可为空。
func NewCollyFetcher(proxyURL string) *CollyFetcher {
	return &CollyFetcher{proxyURL: proxyURL}
}

type collyResult struct {
	page *Page
	err  error
}

func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string, headers http.Header, timeout time.Duration) (*Page, error) {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.IgnoreRobotsTxt(),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}
	if f.proxyURL != "" {
		if err := c.SetProxy(f.proxyURL); err != nil {
			return nil, fmt.Errorf("set proxy: %w", err)
		}
	}

	var page *Page
	c.OnResponse(func(r *colly.Response) {
		page = &Page{URL: r.Request.URL.String(), Body: r.Body}
	})

	done := make(chan collyResult, 1)
	go func() {
		err := c.Request(http.MethodGet, rawURL, nil, nil, headers.Clone())
		done <- collyResult{page: page, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("colly request: %w", res.err)
		}
		if res.page == nil {
			return nil, fmt.Errorf("colly request: no response for %s", rawURL)
		}
		return res.page, nil
	}
}
