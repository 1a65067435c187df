package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freehp/proxypool/model"
)

const tablePage = `<html><body>
<table id="example1"><tbody id="tabli">
<tr><td> 1.2.3.4 </td><td>8080</td><td>CN</td></tr>
<tr><td>5.6.7.8</td><td>not-a-port</td><td>CN</td></tr>
<tr><td></td><td>3128</td><td>CN</td></tr>
<tr><td>9.9.9.9</td><td>70000</td><td>CN</td></tr>
<tr><td>10.0.0.1</td><td>3128</td><td>US</td></tr>
</tbody></table>
<table id="other"><tr><td>7.7.7.7</td><td>77</td></tr></table>
</body></html>`

func TestTableRule_Match(t *testing.T) {
	r, err := NewTableRule(`proxy-list\.download`, "table#example1 tbody#tabli tr", 0, 1)
	require.NoError(t, err)

	got := r.Match("https://www.proxy-list.download/HTTP", []byte(tablePage))
	assert.Equal(t, []string{"1.2.3.4:8080", "10.0.0.1:3128"}, got)
}

func TestTableRule_CustomCells(t *testing.T) {
	page := `<table><tr><td>CN</td><td>3128</td><td>1.2.3.4</td></tr></table>`
	r, err := NewTableRule(``, "tr", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.3.4:3128"}, r.Match("http://x", []byte(page)))
}

func TestTableRule_URLGate(t *testing.T) {
	r, err := NewTableRule(`^https://only\.here/`, "tr", 0, 1)
	require.NoError(t, err)
	assert.Empty(t, r.Match("https://elsewhere/", []byte(tablePage)))
}

func TestNewTableRule_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		urlMatch  string
		selector  string
		host      int
		port      int
		wantField string
	}{
		{"bad url", `(`, "tr", 0, 1, "url_match"},
		{"bad selector", `.*`, "tr[[", 0, 1, "row_select"},
		{"negative host", `.*`, "tr", -1, 1, "host_cell"},
		{"same cells", `.*`, "tr", 1, 1, "port_cell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTableRule(tt.urlMatch, tt.selector, tt.host, tt.port)
			var ce *model.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantField, ce.Key)
		})
	}
}
