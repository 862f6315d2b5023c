// Package config 提供分层配置的合并与快照。
//
// 配置加载优先级 (从低到高)：
//  1. 环境变量 - EnvSource，按前缀过滤并去掉前缀
//  2. 配置文件 - IniFileSource，INI 格式
//  3. 内存层   - MapSource，用于派生出的设置 (如 urls)
//  4. CLI flags - cmdline.Source，最高优先级
//
// 每次合并都从头构建新的 Snapshot，不会原地修改已有快照。
package config

import (
	"context"
	"maps"
	"slices"
	"strings"
)

// Snapshot is an immutable, case-insensitive view of merged settings.
type Snapshot struct {
	values map[string]string
}

// Source produces one configuration layer.
type Source interface {
	Load(ctx context.Context) (map[string]string, error)
}

// Merge flattens layers into a Snapshot. Later layers override earlier
// ones; keys are compared case-insensitively.
func Merge(layers ...map[string]string) *Snapshot {
	values := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			values[normalizeKey(k)] = v
		}
	}
	return &Snapshot{values: values}
}

// Build loads every source in order and merges the results. The first
// failing source aborts the build.
func Build(ctx context.Context, sources ...Source) (*Snapshot, error) {
	layers := make([]map[string]string, 0, len(sources))
	for _, src := range sources {
		layer, err := src.Load(ctx)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return Merge(layers...), nil
}

// Get returns the value for key and whether it was set by any layer.
func (s *Snapshot) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[normalizeKey(key)]
	return v, ok
}

// String returns the value for key, or "" when unset.
func (s *Snapshot) String(key string) string {
	v, _ := s.Get(key)
	return v
}

// Keys returns every key in sorted order.
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.values))
}

// Map returns a copy of the settings.
func (s *Snapshot) Map() map[string]string {
	if s == nil {
		return map[string]string{}
	}
	return maps.Clone(s.values)
}

// Len returns the number of keys.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

func normalizeKey(k string) string {
	return strings.ToLower(k)
}
