package scraper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// Page 是一次成功抓取的结果：重定向之后的最终 URL 和未解码的原始响应体。
type Page struct {
	URL  string
	Body []byte
}

// Fetcher 定义了抓取单个页面的行为。每次调用都是一次独立的尝试，重试由调用方负责。
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers http.Header, timeout time.Duration) (*Page, error)
}

// HTTPFetcher 使用 net/http 实现 Fetcher。非 2xx 响应同样作为页面返回。
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher 创建一个 HTTPFetcher。proxyURL 为空时直连；
// 支持 http/https 前置代理以及 socks5 代理。
func NewHTTPFetcher(proxyURL string) (*HTTPFetcher, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid spider_proxy %q: %w", proxyURL, err)
		}
		switch u.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
		case "socks5", "socks5h":
			dialer, err := proxy.FromURL(u, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("invalid spider_proxy %q: %w", proxyURL, err)
			}
			transport.Proxy = nil
			transport.DialContext = contextDialer(dialer)
		default:
			return nil, fmt.Errorf("unsupported spider_proxy scheme %q", u.Scheme)
		}
	}
	return &HTTPFetcher{client: &http.Client{Transport: transport}}, nil
}

// NewHTTPFetcherWithClient wraps an existing client, e.g. an httptest server's.
func NewHTTPFetcherWithClient(c *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: c}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, headers http.Header, timeout time.Duration) (*Page, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Page{URL: resp.Request.URL.String(), Body: body}, nil
}

func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}
