package spider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freehp/proxypool/model"
)

func TestExpandPage_Range(t *testing.T) {
	urls, err := ExpandPage(model.PageSpec{URL: "http://x.com/p[page]", Page: "1-3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x.com/p1", "http://x.com/p2", "http://x.com/p3"}, urls)
}

func TestExpandPage_NoRange(t *testing.T) {
	urls, err := ExpandPage(model.PageSpec{URL: "x.com/page"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x.com/page"}, urls)
}

func TestExpandPage_SinglePageRange(t *testing.T) {
	urls, err := ExpandPage(model.PageSpec{URL: "https://x.com/[page]/list?p=[page]", Page: " 7 - 7 "})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x.com/7/list?p=7"}, urls)
}

func TestExpandPage_InvalidRange(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"no separator", "15"},
		{"non-integer start", "a-3"},
		{"non-integer end", "1-b"},
		{"too many parts", "1-2-3"},
		{"negative start", "-1-3"},
		{"reversed", "5-1"},
		{"too many pages", "1-10001"},
		{"end overflows", "1-9223372036854775807"},
		{"end out of int range", "1-99999999999999999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpandPage(model.PageSpec{URL: "x.com/[page]", Page: tt.page})
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidConfig), "got %v", err)

			var ce *model.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "page", ce.Key)
		})
	}
}

func TestExpandPage_LargestAllowedRange(t *testing.T) {
	urls, err := ExpandPage(model.PageSpec{URL: "x.com/[page]", Page: "0-9999"})
	require.NoError(t, err)
	assert.Len(t, urls, MaxPages)
	assert.Equal(t, "http://x.com/9999", urls[len(urls)-1])
}

func TestExpandPage_RangeAtIntLimit(t *testing.T) {
	urls, err := ExpandPage(model.PageSpec{URL: "x.com/[page]", Page: "9223372036854775806-9223372036854775807"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://x.com/9223372036854775806",
		"http://x.com/9223372036854775807",
	}, urls)
}

func TestExpandPage_EmptyURL(t *testing.T) {
	_, err := ExpandPage(model.PageSpec{URL: "  "})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"x.com/page", "http://x.com/page"},
		{"http://x.com/page", "http://x.com/page"},
		{"https://x.com/page", "https://x.com/page"},
		{"HTTPS://x.com/page", "HTTPS://x.com/page"},
		{"  x.com  ", "http://x.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.raw))
		})
	}
}

func TestGroupPages_SameHostMerged(t *testing.T) {
	groups, err := GroupPages([]model.PageSpec{
		{URL: "x.com/a/[page]", Page: "1-2"},
		{URL: "y.com/list"},
		{URL: "http://x.com/b/[page]", Page: "3-4"},
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "x.com", groups[0].Host())
	assert.Equal(t, []string{
		"http://x.com/a/1", "http://x.com/a/2",
		"http://x.com/b/3", "http://x.com/b/4",
	}, groups[0].URLs())

	assert.Equal(t, "y.com", groups[1].Host())
	assert.Equal(t, []string{"http://y.com/list"}, groups[1].URLs())
}

func TestGroupPages_DifferentHostsKeepFirstSeenOrder(t *testing.T) {
	groups, err := GroupPages([]model.PageSpec{
		{URL: "c.com"},
		{URL: "a.com"},
		{URL: "b.com:8080/x"},
		{URL: "a.com/2"},
	})
	require.NoError(t, err)

	var hosts []string
	for _, g := range groups {
		hosts = append(hosts, g.Host())
		assert.GreaterOrEqual(t, g.Len(), 1)
	}
	assert.Equal(t, []string{"c.com", "a.com", "b.com:8080"}, hosts)
	assert.Equal(t, []string{"http://a.com", "http://a.com/2"}, groups[1].URLs())
}

func TestGroupPages_HostIsCaseInsensitive(t *testing.T) {
	groups, err := GroupPages([]model.PageSpec{
		{URL: "http://X.com/1"},
		{URL: "x.COM/2"},
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Len())
}

func TestGroupPages_Empty(t *testing.T) {
	groups, err := GroupPages(nil)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupPages_ErrorNamesEntry(t *testing.T) {
	_, err := GroupPages([]model.PageSpec{
		{URL: "x.com"},
		{URL: "y.com/[page]", Page: "oops"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "pages[1]")
}

func TestPageGroup_IsImmutable(t *testing.T) {
	src := []string{"http://x.com/1", "http://x.com/2"}
	g := model.NewPageGroup("x.com", src)
	src[0] = "changed"

	urls := g.URLs()
	urls[1] = "changed too"

	assert.Equal(t, []string{"http://x.com/1", "http://x.com/2"}, g.URLs())
}
