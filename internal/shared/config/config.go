package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"freehp/internal/shared/types"
	"freehp/proxypool/model"
)

const (
	defaultSection = "spider"
	headersSection = "spider_headers"
)

// Override is one "-s NAME=VALUE" command line setting.
// NAME is either "section.key" or a bare key of the [spider] section.
type Override struct {
	Section string
	Key     string
	Value   string
}

// ParseOverride parses "NAME=VALUE".
func ParseOverride(s string) (Override, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Override{}, fmt.Errorf("invalid -s value %q, use -s NAME=VALUE", s)
	}
	o := Override{Section: defaultSection, Key: name, Value: value}
	if sec, key, ok := strings.Cut(name, "."); ok {
		if sec == "" || key == "" {
			return Override{}, fmt.Errorf("invalid -s name %q", name)
		}
		o.Section, o.Key = sec, key
	}
	return o, nil
}

// LoadIni 加载 ini 行为配置文件，应用命令行覆盖项后映射到 cfg。
// fileName 为空时只使用 cfg 中已有的默认值和覆盖项。
func LoadIni(cfg *types.Config, fileName string, overrides ...Override) error {
	var (
		iniFile *ini.File
		err     error
	)
	if fileName == "" {
		iniFile = ini.Empty()
	} else {
		// Header values such as "Mozilla/5.0 (Windows NT 10.0; Win64)" contain ';'.
		iniFile, err = ini.LoadSources(ini.LoadOptions{SpaceBeforeInlineComment: true}, fileName)
		if err != nil {
			return err
		}
	}

	for _, o := range overrides {
		iniFile.Section(o.Section).Key(o.Key).SetValue(o.Value)
	}

	if err := iniFile.MapTo(cfg); err != nil {
		return fmt.Errorf("failed to map %s: %w", fileName, err)
	}

	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	if iniFile.HasSection(headersSection) {
		for k, v := range iniFile.Section(headersSection).KeysHash() {
			cfg.Headers[k] = v
		}
	}
	return validate(cfg)
}

func validate(cfg *types.Config) error {
	if cfg.UpdateTime <= 0 {
		return fmt.Errorf("spider_update_time must be positive, got %d", cfg.UpdateTime)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("spider_timeout must be positive, got %d", cfg.Timeout)
	}
	if cfg.SleepTime < 0 {
		return fmt.Errorf("spider_sleep_time must not be negative, got %d", cfg.SleepTime)
	}
	switch cfg.FetchBackend {
	case "http", "colly":
	default:
		return fmt.Errorf("unknown fetch_backend %q", cfg.FetchBackend)
	}
	return nil
}

// harvestFile mirrors pages.json; proxy_rules may hold a single object or a list.
type harvestFile struct {
	InitialPages []model.PageSpec `json:"initial_pages"`
	UpdatePages  []model.PageSpec `json:"update_pages"`
	ProxyRules   json.RawMessage  `json:"proxy_rules"`
}

// LoadHarvest 加载 pages.json 数据文件。文件不存在时返回空配置而不是错误。
func LoadHarvest(fileName string) (*types.HarvestConf, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return &types.HarvestConf{}, nil
		}
		return nil, fmt.Errorf("failed to read pages file: %w", err)
	}
	return ParseHarvest(data)
}

// ParseHarvest decodes the content of a pages file.
func ParseHarvest(data []byte) (*types.HarvestConf, error) {
	var f harvestFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pages file: %w", err)
	}
	rules, err := parseRules(f.ProxyRules)
	if err != nil {
		return nil, err
	}
	return &types.HarvestConf{
		InitialPages: f.InitialPages,
		UpdatePages:  f.UpdatePages,
		ProxyRules:   rules,
	}, nil
}

func parseRules(raw json.RawMessage) ([]model.RuleSpec, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var rules []model.RuleSpec
		if err := json.Unmarshal(raw, &rules); err != nil {
			return nil, fmt.Errorf("failed to unmarshal proxy_rules: %w", err)
		}
		return rules, nil
	}
	var rule model.RuleSpec
	if err := json.Unmarshal(raw, &rule); err != nil {
		return nil, fmt.Errorf("failed to unmarshal proxy_rules: %w", err)
	}
	return []model.RuleSpec{rule}, nil
}
