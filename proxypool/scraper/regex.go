package scraper

import (
	"regexp"
	"unicode/utf8"

	"freehp/proxypool/model"
)

// RegexRule 用两个正则实现 Matcher：urlMatch 过滤最终 URL，proxyMatch 在原始字节上提取地址。
//
// proxyMatch 有两个及以上分组时结果为 "<分组1>:<分组2>"；只有一个分组时取该分组；
// 没有分组时取整个匹配。
type RegexRule struct {
	urlMatch   *regexp.Regexp
	proxyMatch *regexp.Regexp
}

// NewRegexRule compiles both patterns. A pattern that does not compile yields a *model.ConfigError.
func NewRegexRule(urlMatch, proxyMatch string) (*RegexRule, error) {
	u, err := regexp.Compile(urlMatch)
	if err != nil {
		return nil, &model.ConfigError{Key: "url_match", Value: urlMatch, Err: err}
	}
	if proxyMatch == "" {
		return nil, &model.ConfigError{Key: "proxy_match", Value: proxyMatch}
	}
	p, err := regexp.Compile(proxyMatch)
	if err != nil {
		return nil, &model.ConfigError{Key: "proxy_match", Value: proxyMatch, Err: err}
	}
	return &RegexRule{urlMatch: u, proxyMatch: p}, nil
}

func (r *RegexRule) Match(url string, body []byte) []string {
	if !r.urlMatch.MatchString(url) {
		return nil
	}
	groups := r.proxyMatch.NumSubexp()
	var res []string
	for _, m := range r.proxyMatch.FindAllSubmatch(body, -1) {
		var addr []byte
		switch {
		case groups >= 2:
			addr = make([]byte, 0, len(m[1])+1+len(m[2]))
			addr = append(addr, m[1]...)
			addr = append(addr, ':')
			addr = append(addr, m[2]...)
		case groups == 1:
			addr = m[1]
		default:
			addr = m[0]
		}
		if !utf8.Valid(addr) {
			continue
		}
		res = append(res, string(addr))
	}
	return res
}
