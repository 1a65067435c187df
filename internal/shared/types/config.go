package types

import "freehp/proxypool/model"

// LogConf contains logging specific configuration
type LogConf struct {
	Level  string `ini:"level"`
	Format string `ini:"format"` // "console" (default) or "json"
}

// SpiderConf 包含抓取调度相关的配置，时间单位均为秒。
type SpiderConf struct {
	UpdateTime   int    `ini:"spider_update_time"`
	Timeout      int    `ini:"spider_timeout"`
	SleepTime    int    `ini:"spider_sleep_time"`
	Proxy        string `ini:"spider_proxy"`  // 可选的上游代理, http:// 或 socks5://
	FetchBackend string `ini:"fetch_backend"` // "http" or "colly"
	PagesFile    string `ini:"pages_file"`
}

// OutputConf 决定抓取到的地址写到哪里。"-" 表示标准输出。
type OutputConf struct {
	File string `ini:"file"`
}

// Config 是 freehp 的统一配置结构体。
// [spider_headers] 段不能通过 MapTo 映射成 map，由 config.LoadIni 单独填充 Headers。
type Config struct {
	LogConf    `ini:"log"`
	SpiderConf `ini:"spider"`
	OutputConf `ini:"output"`

	Headers map[string]string `ini:"-"`
}

// Defaults returns a Config populated with the values used when the ini file omits them.
func Defaults() *Config {
	return &Config{
		LogConf: LogConf{Level: "info", Format: "console"},
		SpiderConf: SpiderConf{
			UpdateTime:   1800,
			Timeout:      30,
			SleepTime:    5,
			FetchBackend: "http",
			PagesFile:    "pages.json",
		},
		OutputConf: OutputConf{File: "-"},
		Headers:    map[string]string{},
	}
}

// HarvestConf 是 pages.json 数据文件的结构：页面来源和代理提取规则。
type HarvestConf struct {
	InitialPages []model.PageSpec `json:"initial_pages"`
	UpdatePages  []model.PageSpec `json:"update_pages"`
	ProxyRules   []model.RuleSpec `json:"-"`
}
