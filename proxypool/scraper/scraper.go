package scraper

import (
	"fmt"

	"freehp/proxypool/model"
)

// Matcher 定义了一条提取规则：根据最终 URL 判断是否适用，并从原始响应体中提取 "host:port"。
type Matcher interface {
	// Match 返回按出现顺序排列的地址，不去重。URL 不匹配时返回 nil，且不扫描 body。
	Match(url string, body []byte) []string
}

// RuleSet 是有序的规则集合，构造后不可变。
type RuleSet struct {
	matchers []Matcher
}

// NewRuleSet 创建一个规则集合。
func NewRuleSet(matchers ...Matcher) *RuleSet {
	m := make([]Matcher, len(matchers))
	copy(m, matchers)
	return &RuleSet{matchers: m}
}

// RuleSetFromSpecs 根据配置构造规则集合。任一规则无效都会返回 *model.ConfigError。
func RuleSetFromSpecs(specs []model.RuleSpec) (*RuleSet, error) {
	matchers := make([]Matcher, 0, len(specs))
	for i, spec := range specs {
		m, err := NewMatcher(spec)
		if err != nil {
			return nil, fmt.Errorf("proxy_rules[%d]: %w", i, err)
		}
		matchers = append(matchers, m)
	}
	return &RuleSet{matchers: matchers}, nil
}

// NewMatcher builds the matcher described by spec.
func NewMatcher(spec model.RuleSpec) (Matcher, error) {
	switch {
	case spec.ProxyMatch != "" && spec.RowSelect != "":
		return nil, &model.ConfigError{Key: "proxy_rules", Value: spec.URLMatch,
			Err: fmt.Errorf("proxy_match and row_select are mutually exclusive")}
	case spec.ProxyMatch != "":
		return NewRegexRule(spec.URLMatch, spec.ProxyMatch)
	case spec.RowSelect != "":
		host, port := 0, 1
		if spec.HostCell != nil {
			host = *spec.HostCell
		}
		if spec.PortCell != nil {
			port = *spec.PortCell
		}
		return NewTableRule(spec.URLMatch, spec.RowSelect, host, port)
	default:
		return nil, &model.ConfigError{Key: "proxy_rules", Value: spec.URLMatch,
			Err: fmt.Errorf("either proxy_match or row_select is required")}
	}
}

// FindProxies 依次应用每条规则，按规则顺序拼接结果。
func (s *RuleSet) FindProxies(url string, body []byte) []string {
	var res []string
	for _, m := range s.matchers {
		if found := m.Match(url, body); len(found) > 0 {
			res = append(res, found...)
		}
	}
	return res
}

// Len returns the number of rules.
func (s *RuleSet) Len() int { return len(s.matchers) }
