package datadir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lwmacct/251124-bindconf/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

// TestLocator_Dir 测试数据目录定位
func TestLocator_Dir(t *testing.T) {
	t.Run("HOME 下的隐藏目录", func(t *testing.T) {
		home := t.TempDir()
		l := Locator{Getenv: envOf(map[string]string{"HOME": home})}

		dir, err := l.Dir("BindConf", "main", true)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".bindconf", "main"), dir)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("APPDATA 优先", func(t *testing.T) {
		home, appData := t.TempDir(), t.TempDir()
		l := Locator{Getenv: envOf(map[string]string{"HOME": home, "APPDATA": appData})}

		dir, err := l.Dir("BindConf", "main", false)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(appData, "BindConf", "main"), dir)
		_, err = os.Stat(dir)
		assert.True(t, os.IsNotExist(err), "create=false 时不应创建目录")
	})

	t.Run("无基础目录且需要创建", func(t *testing.T) {
		_, err := Locator{Getenv: envOf(nil)}.Dir("app", "main", true)

		assert.ErrorIs(t, err, ErrNoBaseDir)
	})

	t.Run("无基础目录且无需创建", func(t *testing.T) {
		dir, err := Locator{Getenv: envOf(nil)}.Dir("app", "main", false)

		require.NoError(t, err)
		assert.Empty(t, dir)
	})

	t.Run("目录创建失败", func(t *testing.T) {
		home := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(home, []byte("x"), 0o600))

		_, err := Locator{Getenv: envOf(map[string]string{"HOME": home})}.Dir("app", "main", true)

		var fsErr *config.FilesystemError
		require.ErrorAs(t, err, &fsErr)
		assert.Equal(t, filepath.Join(home, ".app", "main"), fsErr.Path)
	})
}
