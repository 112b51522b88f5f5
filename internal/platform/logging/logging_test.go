package logging

import (
	"os"
	"path/filepath"
	"testing"

	"cbrrates/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "currency_app.log")
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	closeFn, err := Setup(config.Logging{Level: "debug", File: path})
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	logrus.Info("Подключение к PostgreSQL успешно")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Подключение к PostgreSQL успешно")
}

func TestSetup_InvalidLevelFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	closeFn, err := Setup(config.Logging{Level: "chatty"})
	require.NoError(t, err)
	require.NoError(t, closeFn())
	require.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestSetup_UnopenableFile(t *testing.T) {
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	_, err := Setup(config.Logging{Level: "info", File: filepath.Join(t.TempDir(), "no", "such", "dir.log")})
	require.Error(t, err)
}
