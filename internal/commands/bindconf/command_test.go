package bindconf

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/lwmacct/251124-bindconf/internal/config"
	"github.com/lwmacct/251124-bindconf/internal/datadir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// TestRun_Help 测试帮助请求不启动服务
func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := Run(context.Background(), "9.9.9", []string{"--help"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), AppName)
	assert.Contains(t, stdout.String(), "--bind")
}

// TestRun_PrintConfig 测试打印解析后的配置
func TestRun_PrintConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	dataDir := t.TempDir()

	err := Run(context.Background(), "9.9.9",
		[]string{"--datadir", dataDir, "--bind", "127.0.0.1:7001", "--print-config", "--name", "demo"},
		&stdout, &stderr)

	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "http://127.0.0.1:7001/", got["urls"])
	assert.Equal(t, "demo", got["name"])
	assert.Equal(t, dataDir, got["datadir"])
	assert.FileExists(t, filepath.Join(dataDir, ConfigFileName))
	assert.Contains(t, stderr.String(), "configuration file")
}

// TestRun_InvalidLogLevel 测试非法日志级别
func TestRun_InvalidLogLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := Run(context.Background(), "9.9.9",
		[]string{"--datadir", t.TempDir(), "--log-level", "loud"}, &stdout, &stderr)

	assert.ErrorContains(t, err, "log-level")
}

// TestRun_DebugLogDuringResolve 测试 --log-level debug 对解析过程本身生效
func TestRun_DebugLogDuringResolve(t *testing.T) {
	t.Setenv(EnvPrefix+"URLS", "http://127.0.0.1:7002/")
	var stdout, stderr bytes.Buffer

	err := Run(context.Background(), "9.9.9",
		[]string{"--datadir", t.TempDir(), "--log-level", "debug", "--print-config"},
		&stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "listen urls left to environment")
	assert.Contains(t, stderr.String(), "configuration resolved")
	assert.Contains(t, stdout.String(), "http://127.0.0.1:7002/")
}

// TestRun_Serve 测试启动后随上下文取消而退出
func TestRun_Serve(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	err = Run(ctx, "9.9.9",
		[]string{"--datadir", t.TempDir(), "--bind", "127.0.0.1", "--port", fmt.Sprint(port)},
		&stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "server shutdown complete")
}

// TestService_ConfigTemplate 测试生成的配置文件模板可被解析且全部为注释
func TestService_ConfigTemplate(t *testing.T) {
	svc := &service{}
	tmpl := svc.ConfigTemplate(config.Merge(map[string]string{"port": "6100"}))

	assert.Contains(t, tmpl, "#port=6100")

	f, err := ini.Load([]byte(tmpl))
	require.NoError(t, err)
	assert.Empty(t, f.Section(ini.DefaultSection).Keys())
}

// TestService_Defaults 测试默认数据目录与配置文件路径
func TestService_Defaults(t *testing.T) {
	home := t.TempDir()
	svc := &service{locator: datadir.Locator{Getenv: func(k string) string {
		if k == "HOME" {
			return home
		}
		return ""
	}}}

	dir, err := svc.DefaultDataDir(nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".bindconf", "main"), dir)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), svc.DefaultConfigFile(nil, dir))
	assert.Equal(t, DefaultEndpoint, svc.DefaultEndpoint(nil))

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

// TestService_DefaultDataDirError 测试默认数据目录创建失败时返回 FilesystemError
func TestService_DefaultDataDirError(t *testing.T) {
	home := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(home, nil, 0o600))
	svc := &service{locator: datadir.Locator{Getenv: func(k string) string {
		if k == "HOME" {
			return home
		}
		return ""
	}}}

	_, err := svc.DefaultDataDir(nil)

	var fsErr *config.FilesystemError
	assert.ErrorAs(t, err, &fsErr)
}
