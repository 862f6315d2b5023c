package cmdline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"
)

type cliApplication struct {
	cmd      *cli.Command
	executed bool
}

// NewApplication adapts a urfave/cli command. The command's Action is
// replaced by one that only records that it ran, and slice flag
// separators are disabled so ';'-joined values arrive untouched.
//
// Flag mapping: *cli.BoolFlag is BoolValue, *cli.StringSliceFlag is
// MultipleValue, anything else is SingleValue.
func NewApplication(cmd *cli.Command) Application {
	app := &cliApplication{cmd: cmd}
	cmd.DisableSliceFlagSeparator = true
	cmd.Action = func(context.Context, *cli.Command) error {
		app.executed = true
		return nil
	}
	return app
}

func (a *cliApplication) Execute(ctx context.Context, args []string) (bool, error) {
	argv := append([]string{a.cmd.Name}, args...)
	if err := a.cmd.Run(ctx, argv); err != nil {
		return false, err
	}
	return a.executed, nil
}

func (a *cliApplication) Options() []Option {
	opts := make([]Option, 0, len(a.cmd.Flags))
	for _, f := range a.cmd.Flags {
		names := f.Names()
		if len(names) == 0 {
			continue
		}
		name := names[0]
		opt := Option{LongName: name, Type: SingleValue}

		switch f.(type) {
		case *cli.BoolFlag:
			opt.Type = BoolValue
		case *cli.StringSliceFlag:
			opt.Type = MultipleValue
		}

		if a.cmd.IsSet(name) {
			switch opt.Type {
			case BoolValue:
				opt.Values = []string{strconv.FormatBool(a.cmd.Bool(name))}
			case MultipleValue:
				opt.Values = a.cmd.StringSlice(name)
			default:
				opt.Values = []string{fmt.Sprint(a.cmd.Value(name))}
			}
		}
		opts = append(opts, opt)
	}
	return opts
}

func (a *cliApplication) Arguments() []string {
	return a.cmd.Args().Slice()
}
