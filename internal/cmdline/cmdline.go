// Package cmdline 把一次命令行调用转换为扁平的配置层。
//
// 只接受具名选项：多值选项和位置参数都会被拒绝 (*UnsupportedError)。
// 命令行的分词、校验、帮助输出均由 Application 负责，本包只读取执行后的选项值。
package cmdline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// OptionType is the declared shape of an option's value.
type OptionType int

const (
	// NoValue options are switches; presence alone means "true".
	NoValue OptionType = iota
	BoolValue
	SingleValue
	MultipleValue
)

func (t OptionType) String() string {
	switch t {
	case NoValue:
		return "NoValue"
	case BoolValue:
		return "BoolValue"
	case SingleValue:
		return "SingleValue"
	case MultipleValue:
		return "MultipleValue"
	}
	return "OptionType(" + strconv.Itoa(int(t)) + ")"
}

// Option is one option as reported after execution.
type Option struct {
	LongName string
	Type     OptionType
	Values   []string
}

// HasValue reports whether the option was given on the command line.
func (o Option) HasValue() bool { return len(o.Values) > 0 }

// Value returns the last value given, or "".
func (o Option) Value() string {
	if len(o.Values) == 0 {
		return ""
	}
	return o.Values[len(o.Values)-1]
}

// Application tokenizes and validates argv. Execute reports false when
// the invocation was handled without running the program (help, version).
type Application interface {
	Execute(ctx context.Context, args []string) (executed bool, err error)
	Options() []Option
	Arguments() []string
}

// UnsupportedError rejects input shapes this source cannot flatten.
type UnsupportedError struct {
	Kind string // "MultiValue options" or "Arguments"
	Name string // offending option name or argument value
}

func (e *UnsupportedError) Error() string {
	if e.Kind == kindArguments {
		return fmt.Sprintf("Arguments not supported: %q", e.Name)
	}
	return fmt.Sprintf("%s are not supported: --%s", e.Kind, e.Name)
}

func (e *UnsupportedError) Unwrap() error { return errors.ErrUnsupported }

const (
	kindMultiValue = "MultiValue options"
	kindArguments  = "Arguments"
)

// Invocation is the result of executing one Application against argv.
type Invocation struct {
	executed  bool
	options   []Option
	arguments []string
}

// Parse builds a fresh application with factory and executes it once.
func Parse(ctx context.Context, args []string, factory func() Application) (*Invocation, error) {
	app := factory()
	executed, err := app.Execute(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("parse command line: %w", err)
	}
	return &Invocation{
		executed:  executed,
		options:   app.Options(),
		arguments: app.Arguments(),
	}, nil
}

// Executed reports whether the program itself would run.
func (inv *Invocation) Executed() bool { return inv.executed }

// Values returns every value given for the named option.
func (inv *Invocation) Values(name string) []string {
	var out []string
	for _, opt := range inv.options {
		if opt.LongName == name {
			out = append(out, opt.Values...)
		}
	}
	return out
}

// Snapshot flattens the options that carry a value into a key/value layer
// keyed by long name. Options named in skip are left out.
func (inv *Invocation) Snapshot(skip ...string) (map[string]string, error) {
	data := make(map[string]string)
	for _, opt := range inv.options {
		if !opt.HasValue() || slices.Contains(skip, opt.LongName) {
			continue
		}
		switch opt.Type {
		case BoolValue:
			b, err := strconv.ParseBool(opt.Value())
			if err != nil {
				return nil, fmt.Errorf("option --%s: %w", opt.LongName, err)
			}
			data[opt.LongName] = strconv.FormatBool(b)
		case NoValue:
			data[opt.LongName] = "true"
		case SingleValue:
			data[opt.LongName] = opt.Value()
		case MultipleValue:
			return nil, &UnsupportedError{Kind: kindMultiValue, Name: opt.LongName}
		}
	}
	for _, arg := range inv.arguments {
		if arg != "" {
			return nil, &UnsupportedError{Kind: kindArguments, Name: arg}
		}
	}
	return data, nil
}

// Source is a config.Source over argv. Every Load parses args afresh.
type Source struct {
	Args    []string
	Factory func() Application
	// Skip names options that are consumed elsewhere.
	Skip []string
}

func (s Source) Load(ctx context.Context) (map[string]string, error) {
	inv, err := Parse(ctx, s.Args, s.Factory)
	if err != nil {
		return nil, err
	}
	return inv.Snapshot(s.Skip...)
}
