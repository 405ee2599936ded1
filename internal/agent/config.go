package agent

import (
	"bytes"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"metrics-buffer/internal/agent/services/reporter"
	"metrics-buffer/internal/storage/diskstore"

	"github.com/caarlos0/env"
)

type Config struct {
	Addr           string        `env:"ADDRESS"`
	ReportInterval time.Duration `env:"REPORT_INTERVAL"`
	PollInterval   time.Duration `env:"POLL_INTERVAL"`
	ReportType     string        `env:"REPORT_TYPE"`
	SecretKey      string        `env:"KEY"`
	StoreDir       string        `env:"STORE_DIR"`
	StoreNickname  string        `env:"STORE_NICKNAME"`
}

// DefaultConfig Конфигурация для сервиса агента со значениями по умолчанию
func DefaultConfig() *Config {

	return &Config{
		Addr:           "127.0.0.1:8080",
		ReportInterval: 10 * time.Second,
		PollInterval:   2 * time.Second,
		ReportType:     reporter.ReportAsBatchJSON,
		StoreNickname:  diskstore.DefaultNickname,
	}
}

// ParseFlags Чтение параметров командной строки args (без имени программы)
func (cfg *Config) ParseFlags(args []string) error {

	fs := flag.NewFlagSet("agent", flag.ContinueOnError)

	fs.DurationVar(&cfg.ReportInterval, "r", cfg.ReportInterval, "report interval (duration)")
	fs.DurationVar(&cfg.PollInterval, "p", cfg.PollInterval, "poll interval (duration)")
	fs.StringVar(&cfg.SecretKey, "k", cfg.SecretKey, "string - secret key for sign metrics")
	fs.StringVar(&cfg.StoreDir, "s", cfg.StoreDir, "directory for metrics which could not be sent")
	fs.StringVar(&cfg.ReportType, "rt", cfg.ReportType, fmt.Sprint("support types: ",
		reporter.ReportAsURL, "|", reporter.ReportAsJSON, "|", reporter.ReportAsBatchJSON))
	addr := fs.String("a", cfg.Addr, "ip address: ip:port")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := validateAddr(*addr); err != nil {
		return err
	}

	cfg.Addr = *addr
	return nil
}

// ReadEnvironment Получение параметров конфигурации из переменных окружения
func (cfg *Config) ReadEnvironment() error {

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("could not read environment: %w", err)
	}

	// Удаление пробелов из адреса
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	return nil
}

// StorageConfig Настройки каталога буфера неотправленных метрик
func (cfg Config) StorageConfig() diskstore.Config {
	storeCfg := diskstore.DefaultConfig(cfg.StoreNickname)
	storeCfg.Dir = cfg.StoreDir
	return storeCfg
}

func validateAddr(addr string) error {

	if addr == "" {
		return fmt.Errorf("address can not be empty")
	}

	host, port, err := net.SplitHostPort(addr)
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

	return nil
}

func (cfg Config) String() string {

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ADDRESS\t", cfg.Addr)
	fmt.Fprintln(w, "REPORT_INTERVAL\t", cfg.ReportInterval.String())
	fmt.Fprintln(w, "POLL_INTERVAL\t", cfg.PollInterval.String())
	fmt.Fprintln(w, "REPORT_TYPE\t", cfg.ReportType)
	fmt.Fprintln(w, "KEY\t", cfg.SecretKey)
	fmt.Fprintln(w, "STORE_DIR\t", cfg.StoreDir)
	fmt.Fprintln(w, "STORE_NICKNAME\t", cfg.StoreNickname)

	if err := w.Flush(); err != nil {
		return err.Error()
	}

	return buf.String()
}
