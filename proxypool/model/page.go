package model

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig 是所有配置错误的公共根。errors.Is(err, ErrInvalidConfig) 对每个 *ConfigError 成立。
var ErrInvalidConfig = errors.New("invalid configuration")

// PageSpec 描述一个页面来源：单个 URL，或带 [page] 占位符的页码范围。
type PageSpec struct {
	URL  string `json:"url"`
	Page string `json:"page,omitempty"` // "start-end", 闭区间
}

// PageGroup 是同一主机下的一组具体 URL，构造后不可变，顺序固定。
type PageGroup struct {
	host string
	urls []string
}

// NewPageGroup copies urls so later changes by the caller cannot reorder the group.
func NewPageGroup(host string, urls []string) PageGroup {
	cp := make([]string, len(urls))
	copy(cp, urls)
	return PageGroup{host: host, urls: cp}
}

func (g PageGroup) Host() string { return g.host }

// URLs returns a copy of the group's URLs in harvest order.
func (g PageGroup) URLs() []string {
	cp := make([]string, len(g.urls))
	copy(cp, g.urls)
	return cp
}

func (g PageGroup) Len() int { return len(g.urls) }

// URL returns the i-th URL of the group.
func (g PageGroup) URL(i int) string { return g.urls[i] }

// RuleSpec 是一条提取规则的原始配置。
// proxy_match 为正则规则；row_select 为基于 CSS 选择器的表格规则，二者选其一。
type RuleSpec struct {
	URLMatch   string `json:"url_match"`
	ProxyMatch string `json:"proxy_match,omitempty"`
	RowSelect  string `json:"row_select,omitempty"`
	HostCell   *int   `json:"host_cell,omitempty"`
	PortCell   *int   `json:"port_cell,omitempty"`
}

// ConfigError reports a configuration value that cannot be used.
// It is raised while building groups and rules, never while harvesting.
type ConfigError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s %q", e.Key, e.Value)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Key, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }
