package spider

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"freehp/proxypool/model"
)

// PagePlaceholder 是页码范围展开时被替换的占位符。
const PagePlaceholder = "[page]"

// MaxPages 是单个页码范围最多展开的页数。
const MaxPages = 10000

var hostRe = regexp.MustCompile(`(?i)^https?://([^/]*)`)

// GroupPages 展开页面配置并按主机分组。
// 主机取自每个条目展开后的第一个 URL；同主机的后续条目追加到已有分组，分组按首次出现的顺序返回。
func GroupPages(specs []model.PageSpec) ([]model.PageGroup, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	index := make(map[string]int)
	var hosts []string
	var urls [][]string
	for i, spec := range specs {
		expanded, err := ExpandPage(spec)
		if err != nil {
			return nil, fmt.Errorf("pages[%d]: %w", i, err)
		}
		host := hostOf(expanded[0])
		if j, ok := index[host]; ok {
			urls[j] = append(urls[j], expanded...)
			continue
		}
		index[host] = len(hosts)
		hosts = append(hosts, host)
		urls = append(urls, expanded)
	}

	groups := make([]model.PageGroup, len(hosts))
	for i, host := range hosts {
		groups[i] = model.NewPageGroup(host, urls[i])
	}
	return groups, nil
}

// ExpandPage turns one page spec into its concrete URLs, in ascending page order.
// The result always has at least one URL.
func ExpandPage(spec model.PageSpec) ([]string, error) {
	u := NormalizeURL(spec.URL)
	if u == "" {
		return nil, &model.ConfigError{Key: "url", Value: spec.URL}
	}
	if spec.Page == "" {
		return []string{u}, nil
	}

	start, end, err := parseRange(spec.Page)
	if err != nil {
		return nil, err
	}
	n := end - start + 1
	res := make([]string, 0, n)
	for k := 0; k < n; k++ {
		res = append(res, strings.ReplaceAll(u, PagePlaceholder, strconv.Itoa(start+k)))
	}
	return res, nil
}

// NormalizeURL prefixes "http://" when the URL has no http(s) scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "http://" + raw
}

func parseRange(page string) (int, int, error) {
	parts := strings.Split(page, "-")
	if len(parts) != 2 {
		return 0, 0, &model.ConfigError{Key: "page", Value: page,
			Err: fmt.Errorf("expected \"start-end\"")}
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, &model.ConfigError{Key: "page", Value: page, Err: err}
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, &model.ConfigError{Key: "page", Value: page, Err: err}
	}
	if start > end {
		return 0, 0, &model.ConfigError{Key: "page", Value: page,
			Err: fmt.Errorf("start %d is greater than end %d", start, end)}
	}
	// start >= 0 here, so end-start cannot overflow.
	if end-start >= MaxPages {
		return 0, 0, &model.ConfigError{Key: "page", Value: page,
			Err: fmt.Errorf("range covers more than %d pages", MaxPages)}
	}
	return start, end, nil
}

// hostOf 返回小写的主机部分，大小写不同的同一主机归入一个分组。
func hostOf(u string) string {
	if m := hostRe.FindStringSubmatch(u); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}
