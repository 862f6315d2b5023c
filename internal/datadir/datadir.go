// Package datadir 定位服务的默认数据目录。
//
// 规则：设置了 HOME 且未设置 APPDATA 时使用 $HOME/.<app>，
// 否则使用 $APPDATA/<app>；子目录追加在其后。
package datadir

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/lwmacct/251124-bindconf/internal/config"
)

// ErrNoBaseDir is returned when neither HOME nor APPDATA is set and the
// directory must be created.
var ErrNoBaseDir = errors.New("could not find suitable datadir: environment variables HOME or APPDATA are not set")

// Locator finds data directories. The zero value reads the process
// environment.
type Locator struct {
	Getenv func(string) string
}

// Dir returns the data directory for app/sub, creating it when create is
// set. Without a base directory it returns "" (create unset) or
// ErrNoBaseDir. Creation failures are *config.FilesystemError.
func (l Locator) Dir(app, sub string, create bool) (string, error) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	home, appData := getenv("HOME"), getenv("APPDATA")

	var base string
	switch {
	case home != "" && appData == "":
		base = filepath.Join(home, "."+strings.ToLower(app))
	case appData != "":
		base = filepath.Join(appData, app)
	case create:
		return "", ErrNoBaseDir
	default:
		return "", nil
	}

	dir := filepath.Join(base, sub)
	if create {
		if err := config.EnsureDir(dir); err != nil {
			return "", err
		}
	}
	return dir, nil
}
