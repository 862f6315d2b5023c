package bindconf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/lwmacct/251124-bindconf/internal/config"
	"github.com/lwmacct/251124-bindconf/internal/resolver"
	"github.com/lwmacct/251124-bindconf/internal/server"
	"gopkg.in/yaml.v3"
)

// 配置优先级 (从低到高)：
// 1. 环境变量 (BINDCONF_*)
// 2. 配置文件 (<datadir>/bindconf.conf)
// 3. 派生的 urls (由 bind / port 计算)
// 4. CLI flags (用户明确指定)

// Run resolves the configuration for args (without the program name) and
// serves until ctx is done or a signal arrives. Help and version requests
// return nil without serving.
func Run(ctx context.Context, version string, args []string, stdout, stderr io.Writer) error {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	// 日志级别在每轮解析后立即生效，解析过程自身的 debug 日志也受其控制
	applyLevel := func(snap *config.Snapshot) error {
		if v := snap.String("log-level"); v != "" {
			if err := level.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("setting log-level: %w", err)
			}
		}
		return nil
	}

	svc := &service{version: version, stdout: stdout, stderr: stderr}
	res, err := resolver.New(svc,
		resolver.WithLogger(logger),
		resolver.WithOnSettings(applyLevel),
	).Resolve(ctx, args)
	if errors.Is(err, resolver.ErrNotExecuted) {
		return nil
	}
	if err != nil {
		return err
	}

	snap := res.Snapshot
	logger.Debug("configuration resolved",
		"datadir", res.DataDir,
		"config", res.ConfigFile,
		"config_created", res.ConfigCreated,
		"endpoints", res.Endpoints,
	)
	if len(res.Endpoints) == 0 {
		logger.Info("listen urls taken from environment", "urls", snap.String(resolver.KeyURLs))
	}

	if v := snap.String("print-config"); v != "" {
		show, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("setting print-config: %w", err)
		}
		if show {
			return yaml.NewEncoder(stdout).Encode(snap.Map())
		}
	}

	cfg, err := server.FromSnapshot(snap)
	if err != nil {
		return err
	}
	cfg.Version = version

	srv, err := server.NewServer(cfg, snap, logger)
	if err != nil {
		return err
	}

	// 优雅关闭
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
