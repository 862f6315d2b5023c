package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// KeyDelimiter joins a section name and a key, e.g. "server:timeout".
const KeyDelimiter = ":"

// EnvSource imports environment variables whose name starts with Prefix.
// The prefix is stripped and "__" maps to KeyDelimiter.
type EnvSource struct {
	Prefix  string
	Environ func() []string // defaults to os.Environ
}

func (s EnvSource) Load(context.Context) (map[string]string, error) {
	environ := s.Environ
	if environ == nil {
		environ = os.Environ
	}

	data := make(map[string]string)
	for _, kv := range environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || len(name) < len(s.Prefix) || !strings.EqualFold(name[:len(s.Prefix)], s.Prefix) {
			continue
		}
		key := strings.ReplaceAll(name[len(s.Prefix):], "__", KeyDelimiter)
		if key == "" {
			continue
		}
		data[key] = value
	}
	return data, nil
}

// IniFileSource reads key=value pairs from an INI file. Keys in the
// unnamed section keep their name; keys inside [section] become
// "section:key". A missing file is an error.
type IniFileSource struct {
	Path string
}

func (s IniFileSource) Load(context.Context) (map[string]string, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		Insensitive: true,
		// bind values are ';'-separated lists
		IgnoreInlineComment: true,
	}, s.Path)
	if err != nil {
		return nil, fmt.Errorf("load config file %s: %w", s.Path, err)
	}

	data := make(map[string]string)
	for _, section := range f.Sections() {
		prefix := ""
		if name := section.Name(); name != ini.DefaultSection && name != strings.ToLower(ini.DefaultSection) {
			prefix = name + KeyDelimiter
		}
		for _, key := range section.Keys() {
			data[prefix+key.Name()] = key.String()
		}
	}
	return data, nil
}

// MapSource is an in-memory layer.
type MapSource map[string]string

func (s MapSource) Load(context.Context) (map[string]string, error) {
	return map[string]string(s), nil
}
