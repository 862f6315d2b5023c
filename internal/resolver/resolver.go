// Package resolver 解析服务的最终运行配置并派生监听地址。
//
// 解析分三轮完成，每轮都从头重新合并全部配置层：
//  1. 环境变量 + CLI：确定数据目录和配置文件路径
//  2. 环境变量 + 配置文件 + CLI：必要时先写入默认配置文件
//  3. 环境变量 + 配置文件 + 派生的 urls + CLI：由 bind/port 计算 urls
//
// 优先级固定为 CLI > 配置文件 > 环境变量。
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/lwmacct/251124-bindconf/internal/cmdline"
	"github.com/lwmacct/251124-bindconf/internal/config"
	"github.com/lwmacct/251124-bindconf/internal/endpoint"
	"github.com/urfave/cli/v3"
)

// Setting keys known to the resolver.
const (
	KeyConf    = "conf"
	KeyPort    = "port"
	KeyBind    = "bind"
	KeyDataDir = "datadir"
	KeyURLs    = "urls"
)

// ErrNotExecuted is returned when the command line was handled without
// running the service, e.g. --help or --version.
var ErrNotExecuted = errors.New("command line not executed")

// Service supplies the service-specific parts of resolution. Every
// snapshot passed in is the best configuration known at that point.
type Service interface {
	// EnvPrefix selects the environment variables to import, e.g. "BINDCONF_".
	EnvPrefix() string
	// NewCommand returns a fresh command carrying the service's own flags.
	NewCommand() *cli.Command
	DefaultDataDir(snap *config.Snapshot) (string, error)
	DefaultConfigFile(snap *config.Snapshot, dataDir string) string
	ConfigTemplate(snap *config.Snapshot) string
	DefaultEndpoint(snap *config.Snapshot) netip.AddrPort
}

// Result is the outcome of a successful resolution.
type Result struct {
	Snapshot      *config.Snapshot
	DataDir       string
	ConfigFile    string
	ConfigCreated bool
	// Endpoints is empty when urls was left to the hosting URL variable.
	Endpoints []netip.AddrPort
}

// Resolver runs the layered resolution for one Service.
type Resolver struct {
	svc           Service
	logger        *slog.Logger
	environ       func() []string
	normalizer    endpoint.Normalizer
	hostingURLEnv string
	onSettings    func(*config.Snapshot) error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithEnviron replaces os.Environ as the environment source.
func WithEnviron(environ func() []string) Option {
	return func(r *Resolver) { r.environ = environ }
}

// WithLookup replaces DNS resolution for bind host names.
func WithLookup(lookup endpoint.LookupFunc) Option {
	return func(r *Resolver) { r.normalizer.Lookup = lookup }
}

// WithHostingURLEnv names the variable whose presence leaves urls to the
// environment. The default is EnvPrefix()+"URLS".
func WithHostingURLEnv(name string) Option {
	return func(r *Resolver) { r.hostingURLEnv = name }
}

// WithOnSettings registers fn to run on each intermediate snapshot as soon
// as it is built, before the resolver logs anything about it. An error
// from fn aborts resolution.
func WithOnSettings(fn func(*config.Snapshot) error) Option {
	return func(r *Resolver) { r.onSettings = fn }
}

// New creates a Resolver for svc.
func New(svc Service, opts ...Option) *Resolver {
	r := &Resolver{svc: svc}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.hostingURLEnv == "" {
		r.hostingURLEnv = svc.EnvPrefix() + "URLS"
	}
	return r
}

// NewCommand returns the service command with the built-in options added.
func (r *Resolver) NewCommand() *cli.Command {
	cmd := r.svc.NewCommand()
	cmd.Flags = append(cmd.Flags,
		&cli.StringFlag{Name: KeyConf, Aliases: []string{"c"}, Usage: "The configuration file"},
		&cli.StringFlag{Name: KeyPort, Aliases: []string{"p"}, Usage: "The port on which to listen"},
		&cli.StringSliceFlag{Name: KeyBind, Aliases: []string{"b"}, Usage: "The address on which to bind (';' separates several)"},
		&cli.StringFlag{Name: KeyDataDir, Aliases: []string{"d"}, Usage: "The data directory"},
	)
	return cmd
}

func (r *Resolver) application() cmdline.Application {
	return cmdline.NewApplication(r.NewCommand())
}

// Resolve runs all passes against args (without the program name).
func (r *Resolver) Resolve(ctx context.Context, args []string) (*Result, error) {
	inv, err := cmdline.Parse(ctx, args, r.application)
	if err != nil {
		return nil, err
	}
	if !inv.Executed() {
		return nil, ErrNotExecuted
	}

	env := config.EnvSource{Prefix: r.svc.EnvPrefix(), Environ: r.environ}
	// bind is read from the invocation directly; as a multi-value option
	// it cannot be flattened into a layer.
	cmdLine := cmdline.Source{Args: args, Factory: r.application, Skip: []string{KeyBind}}

	probe, err := config.Build(ctx, env, cmdLine)
	if err != nil {
		return nil, fmt.Errorf("resolve bootstrap settings: %w", err)
	}
	if err := r.apply(probe); err != nil {
		return nil, err
	}

	dataDir, ok := probe.Get(KeyDataDir)
	if !ok {
		if dataDir, err = r.svc.DefaultDataDir(probe); err != nil {
			return nil, fmt.Errorf("locate data directory: %w", err)
		}
	}
	if err := config.EnsureDir(dataDir); err != nil {
		return nil, err
	}
	r.logger.Info("data directory", "path", absPath(dataDir))

	confFile, ok := probe.Get(KeyConf)
	if !ok {
		confFile = r.svc.DefaultConfigFile(probe, dataDir)
	}
	r.logger.Info("configuration file", "path", absPath(confFile))

	created, err := config.EnsureFile(confFile, func() string { return r.svc.ConfigTemplate(probe) })
	if err != nil {
		return nil, err
	}
	if created {
		r.logger.Info("created configuration file", "path", confFile)
	}

	file := config.IniFileSource{Path: confFile}
	full, err := config.Build(ctx, env, file, cmdLine)
	if err != nil {
		return nil, fmt.Errorf("resolve settings: %w", err)
	}
	if err := r.apply(full); err != nil {
		return nil, err
	}

	derived, endpoints, err := r.deriveURLs(ctx, full, inv.Values(KeyBind))
	if err != nil {
		return nil, err
	}

	final, err := config.Build(ctx, env, file, derived, cmdLine)
	if err != nil {
		return nil, fmt.Errorf("resolve settings: %w", err)
	}

	return &Result{
		Snapshot:      final,
		DataDir:       dataDir,
		ConfigFile:    confFile,
		ConfigCreated: created,
		Endpoints:     endpoints,
	}, nil
}

// deriveURLs computes the urls layer from CLI binds, the configured bind
// and port, and the service default endpoint. It returns an empty layer
// when none of those apply and the hosting URL variable is set.
func (r *Resolver) deriveURLs(ctx context.Context, snap *config.Snapshot, cliBinds []string) (config.MapSource, []netip.AddrPort, error) {
	binds := endpoint.SplitList(cliBinds...)
	for _, b := range endpoint.SplitList(snap.String(KeyBind)) {
		if !slices.Contains(binds, b) {
			binds = append(binds, b)
		}
	}

	portSetting, hasPort := snap.Get(KeyPort)
	if !hasPort && len(binds) == 0 && r.getenv(r.hostingURLEnv) != "" {
		r.logger.Debug("listen urls left to environment", "env", r.hostingURLEnv)
		return nil, nil, nil
	}

	def := r.svc.DefaultEndpoint(snap)
	port := int(def.Port())
	if p, err := strconv.Atoi(portSetting); err == nil && p > 0 && p <= 0xFFFF {
		port = p
	}
	if len(binds) == 0 {
		binds = append(binds, netip.AddrPortFrom(def.Addr(), uint16(port)).String())
	}

	endpoints := make([]netip.AddrPort, 0, len(binds))
	urls := make([]string, 0, len(binds))
	for _, b := range binds {
		ap, err := r.normalizer.Normalize(ctx, b, port)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve bind address: %w", err)
		}
		endpoints = append(endpoints, ap)
		urls = append(urls, endpoint.URL(ap))
	}
	r.logger.Info("listen urls", "urls", urls)

	return config.MapSource{KeyURLs: strings.Join(urls, ";")}, endpoints, nil
}

func (r *Resolver) apply(snap *config.Snapshot) error {
	if r.onSettings == nil {
		return nil
	}
	return r.onSettings(snap)
}

func (r *Resolver) getenv(name string) string {
	environ := r.environ
	if environ == nil {
		return os.Getenv(name)
	}
	for _, kv := range environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k == name {
			return v
		}
	}
	return ""
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
