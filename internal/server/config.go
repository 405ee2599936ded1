package server

import (
	"bytes"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"text/tabwriter"

	"metrics-buffer/internal/storage"
	"metrics-buffer/internal/storage/diskstore"
	"metrics-buffer/internal/storage/memstore"
	"metrics-buffer/internal/storage/pgstore"
	"metrics-buffer/pkg/logpack"
	metricPkg "metrics-buffer/pkg/metric"

	"github.com/caarlos0/env"
)

type Config struct {
	Addr        string `env:"ADDRESS"`
	DatabaseDSN string `env:"DATABASE_DSN"`
	StoreDir    string `env:"STORE_DIR"`
	SecretKey   string `env:"KEY"`
}

// DefaultConfig Конфигурация сервера со значениями по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Addr: ":8080",
	}
}

// ParseFlags Чтение параметров командной строки args (без имени программы)
func (cfg *Config) ParseFlags(args []string) error {

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&cfg.SecretKey, "k", cfg.SecretKey, "string - key sign")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "string - database data source name")
	fs.StringVar(&cfg.StoreDir, "s", cfg.StoreDir, "string - directory for metrics storage")
	addr := fs.String("a", cfg.Addr, "string - host:port")

	if err := fs.Parse(args); err != nil {
		return err
	}

	host, port, err := net.SplitHostPort(*addr)
	if err != nil {
		return fmt.Errorf("need address in a format host:port")
	}

	if len(host) > 0 && host != "localhost" {
		if ip := net.ParseIP(host); ip == nil {
			return fmt.Errorf("incorrect ip: %s", host)
		}
	}

	if _, err := strconv.Atoi(port); err != nil {
		return fmt.Errorf("incorrect port: %s", port)
	}

	cfg.Addr = *addr
	return nil
}

// ReadEnvironment Получение параметров конфигурации из переменных окружения
func (cfg *Config) ReadEnvironment() error {

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("could not read environment: %w", err)
	}

	// Убираем пробелы из адреса
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	return nil
}

// OpenStorage Хранилище метрик по конфигурации:
// база данных, если задан DATABASE_DSN, каталог, если задан STORE_DIR, иначе память.
// Возвращаемая функция закрывает хранилище.
func (cfg Config) OpenStorage(logger *logpack.LogPack) (storage.Storage[string, metricPkg.Metric], func() error, error) {

	noop := func() error { return nil }

	switch {
	case cfg.DatabaseDSN != "":
		store, err := pgstore.New(cfg.DatabaseDSN, pgstore.WithLogger[metricPkg.Metric](logger))
		if err != nil {
			return nil, noop, fmt.Errorf("could not open database storage: %w", err)
		}
		return store, store.Close, nil

	case cfg.StoreDir != "":
		store, err := diskstore.New(diskstore.Config{Dir: cfg.StoreDir}, diskstore.WithLogger[metricPkg.Metric](logger))
		if err != nil {
			return nil, noop, fmt.Errorf("could not open disk storage: %w", err)
		}
		return store, noop, nil

	default:
		return memstore.New[metricPkg.Metric](), noop, nil
	}
}

func (cfg Config) String() string {

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ADDRESS\t", cfg.Addr)
	fmt.Fprintln(w, "DATABASE_DSN\t", cfg.DatabaseDSN)
	fmt.Fprintln(w, "STORE_DIR\t", cfg.StoreDir)
	fmt.Fprintln(w, "KEY\t", cfg.SecretKey)

	if err := w.Flush(); err != nil {
		return err.Error()
	}

	return buf.String()
}
