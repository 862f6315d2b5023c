package bindconf

import (
	"fmt"
	"io"
	"net/netip"
	"path/filepath"
	"strings"

	"github.com/lwmacct/251124-bindconf/internal/config"
	"github.com/lwmacct/251124-bindconf/internal/datadir"
	"github.com/lwmacct/251124-bindconf/internal/server"
	"github.com/urfave/cli/v3"
)

const (
	// AppName names the data directory and the command.
	AppName = "bindconf"
	// EnvPrefix selects the environment variables imported as settings.
	EnvPrefix = "BINDCONF_"
	// ConfigFileName is the settings file inside the data directory.
	ConfigFileName = "bindconf.conf"
)

// DefaultEndpoint is used when neither bind nor port is configured.
var DefaultEndpoint = netip.MustParseAddrPort("127.0.0.1:5000")

// 默认配置 - 单一来源 (Single Source of Truth)
var defaults = server.DefaultConfig()

// Command returns the bindconf CLI command. The resolver appends the
// conf, port, bind and datadir options.
func Command(version string) *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "HTTP service listening on addresses resolved from environment, settings file and command line",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "service name reported by / and /health (default: " + defaults.Name + ")",
			},
			&cli.BoolFlag{
				Name:  "no-access-log",
				Usage: "disable access logging",
			},
			&cli.StringFlag{
				Name:  "port-file",
				Usage: "file to write the first bound port",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level: debug, info, warn, error",
			},
			&cli.BoolFlag{
				Name:  "print-config",
				Usage: "print the resolved configuration as YAML and exit",
			},
		},
	}
}

// service adapts the command to resolver.Service.
type service struct {
	version        string
	stdout, stderr io.Writer
	locator        datadir.Locator
}

func (s *service) EnvPrefix() string { return EnvPrefix }

func (s *service) NewCommand() *cli.Command {
	cmd := Command(s.version)
	cmd.Writer = s.stdout
	cmd.ErrWriter = s.stderr
	return cmd
}

func (s *service) DefaultDataDir(*config.Snapshot) (string, error) {
	return s.locator.Dir(AppName, "main", true)
}

func (s *service) DefaultConfigFile(_ *config.Snapshot, dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

func (s *service) DefaultEndpoint(*config.Snapshot) netip.AddrPort {
	return DefaultEndpoint
}

func (s *service) ConfigTemplate(snap *config.Snapshot) string {
	port := snap.String("port")
	if port == "" {
		port = fmt.Sprint(DefaultEndpoint.Port())
	}

	var b strings.Builder
	b.WriteString("# " + AppName + " settings\n")
	b.WriteString("# Values here override " + EnvPrefix + "* environment variables\n")
	b.WriteString("# and are overridden by command line options.\n\n")
	b.WriteString("# Addresses to listen on, ';' separated: host, host:port, [ipv6]:port\n")
	fmt.Fprintf(&b, "#bind=%s\n", DefaultEndpoint.Addr())
	b.WriteString("# Port used by bind addresses without one\n")
	fmt.Fprintf(&b, "#port=%s\n\n", port)
	fmt.Fprintf(&b, "#name=%s\n", defaults.Name)
	fmt.Fprintf(&b, "#read-timeout=%s\n", defaults.ReadTimeout)
	fmt.Fprintf(&b, "#write-timeout=%s\n", defaults.WriteTimeout)
	fmt.Fprintf(&b, "#idle-timeout=%s\n", defaults.IdleTimeout)
	b.WriteString("#no-access-log=false\n")
	return b.String()
}
