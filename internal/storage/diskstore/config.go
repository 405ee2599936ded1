package diskstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"metrics-buffer/pkg/errs"

	"github.com/caarlos0/env"
)

const (
	DefaultNickname = "metrics-buffer"
	DefaultPerm     = 0o755

	cacheSubdir = "metrics"
)

// Config Настройки каталога хранилища
type Config struct {
	Dir      string      `env:"STORE_DIR"`
	Nickname string      `env:"STORE_NICKNAME"`
	Perm     os.FileMode
}

// DefaultConfig Каталог по умолчанию определяется именем приложения nickname:
// <каталог кеша пользователя>/<nickname>/metrics.
// Повторные запуски с тем же nickname используют тот же каталог.
func DefaultConfig(nickname string) Config {
	return Config{
		Nickname: nickname,
		Perm:     DefaultPerm,
	}
}

// ReadEnvironment Получение параметров конфигурации из переменных окружения
func (cfg *Config) ReadEnvironment() error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("could not read storage config: %w", err)
	}

	cfg.Dir = strings.TrimSpace(cfg.Dir)
	return nil
}

// Resolve Абсолютный путь к каталогу хранилища
func (cfg Config) Resolve() (string, error) {

	dir := cfg.Dir

	if dir == "" {
		nickname := cfg.Nickname
		if nickname == "" {
			nickname = DefaultNickname
		}

		if strings.ContainsAny(nickname, `/\`) || nickname == "." || nickname == ".." {
			return "", errs.Wrap("resolve dir", nickname, errs.ErrConfiguration, errors.New("nickname is not a valid directory name"))
		}

		base, err := os.UserCacheDir()
		if err != nil || base == "" {
			base = os.TempDir()
		}

		dir = filepath.Join(base, nickname, cacheSubdir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errs.Wrap("resolve dir", dir, errs.ErrConfiguration, err)
	}

	return abs, nil
}

func (cfg Config) perm() os.FileMode {
	if cfg.Perm == 0 {
		return DefaultPerm
	}
	return cfg.Perm
}

// ensureDir Создание каталога вместе с родительскими.
// Существующий каталог, доступный на запись, не является ошибкой.
func ensureDir(dir string, perm os.FileMode) error {

	if err := os.MkdirAll(dir, perm); err != nil {
		return errs.Wrap("create dir", dir, errs.ErrConfiguration, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return errs.Wrap("stat dir", dir, errs.ErrConfiguration, err)
	}

	if !info.IsDir() {
		return errs.Wrap("create dir", dir, errs.ErrConfiguration, fs.ErrExist)
	}

	probe, err := os.CreateTemp(dir, tempPrefix+"probe-*")
	if err != nil {
		return errs.Wrap("check dir", dir, errs.ErrConfiguration, err)
	}

	name := probe.Name()
	if err := probe.Close(); err != nil {
		return errs.Wrap("check dir", dir, errs.ErrConfiguration, err)
	}

	if err := os.Remove(name); err != nil {
		return errs.Wrap("check dir", dir, errs.ErrConfiguration, err)
	}

	return nil
}
