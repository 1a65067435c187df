package scraper

import (
	"bytes"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"freehp/internal/shared/logger"
	"freehp/proxypool/model"
)

// TableRule 实现了 Matcher，用于以 HTML 表格发布代理的页面：
// 每个匹配 rowSelect 的行中，第 hostCell 个 td 为主机，第 portCell 个 td 为端口。
type TableRule struct {
	urlMatch *regexp.Regexp
	rows     cascadia.Selector
	hostCell int
	portCell int
}

// NewTableRule compiles the URL pattern and the row selector up front.
func NewTableRule(urlMatch, rowSelect string, hostCell, portCell int) (*TableRule, error) {
	u, err := regexp.Compile(urlMatch)
	if err != nil {
		return nil, &model.ConfigError{Key: "url_match", Value: urlMatch, Err: err}
	}
	sel, err := cascadia.Compile(rowSelect)
	if err != nil {
		return nil, &model.ConfigError{Key: "row_select", Value: rowSelect, Err: err}
	}
	if hostCell < 0 {
		return nil, &model.ConfigError{Key: "host_cell", Value: strconv.Itoa(hostCell)}
	}
	if portCell < 0 || portCell == hostCell {
		return nil, &model.ConfigError{Key: "port_cell", Value: strconv.Itoa(portCell)}
	}
	return &TableRule{urlMatch: u, rows: sel, hostCell: hostCell, portCell: portCell}, nil
}

func (r *TableRule) Match(url string, body []byte) []string {
	if !r.urlMatch.MatchString(url) {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		l := logger.WithComponent("ProxyPool/Scraper")
		l.Warn().Err(err).Str("url", url).Msg("Failed to parse HTML, skipping table rule.")
		return nil
	}

	var res []string
	doc.FindMatcher(r.rows).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		host := strings.TrimSpace(cells.Eq(r.hostCell).Text())
		portStr := strings.TrimSpace(cells.Eq(r.portCell).Text())
		if host == "" || portStr == "" {
			return
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return
		}
		res = append(res, net.JoinHostPort(host, portStr))
	})
	return res
}
