package scanner

import (
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"metrics-buffer/internal/storage"
	"metrics-buffer/pkg/metric"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const PollCount = "PollCount"

type Scanner struct {
	storage   storage.Storage[string, metric.Metric]
	generator *rand.Rand
}

func NewScanner(storage storage.Storage[string, metric.Metric]) *Scanner {
	return &Scanner{
		storage:   storage,
		generator: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (scan *Scanner) Scan() error {

	if err := scan.updateRuntime(); err != nil {
		return err
	}

	if err := scan.updateWorkload(); err != nil {
		return err
	}

	return scan.incrementPollCount()
}

// updateRuntime Обновление runtime метрик
func (scan *Scanner) updateRuntime() error {

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	gauges := map[string]float64{
		"Alloc":         float64(ms.Alloc),
		"BuckHashSys":   float64(ms.BuckHashSys),
		"Frees":         float64(ms.Frees),
		"GCCPUFraction": ms.GCCPUFraction,
		"GCSys":         float64(ms.GCSys),
		"HeapAlloc":     float64(ms.HeapAlloc),
		"HeapIdle":      float64(ms.HeapIdle),
		"HeapInuse":     float64(ms.HeapInuse),
		"HeapObjects":   float64(ms.HeapObjects),
		"HeapReleased":  float64(ms.HeapReleased),
		"HeapSys":       float64(ms.HeapSys),
		"LastGC":        float64(ms.LastGC),
		"Lookups":       float64(ms.Lookups),
		"MCacheInuse":   float64(ms.MCacheInuse),
		"MCacheSys":     float64(ms.MCacheSys),
		"MSpanInuse":    float64(ms.MSpanInuse),
		"MSpanSys":      float64(ms.MSpanSys),
		"Mallocs":       float64(ms.Mallocs),
		"NextGC":        float64(ms.NextGC),
		"NumForcedGC":   float64(ms.NumForcedGC),
		"NumGC":         float64(ms.NumGC),
		"OtherSys":      float64(ms.OtherSys),
		"PauseTotalNs":  float64(ms.PauseTotalNs),
		"StackInuse":    float64(ms.StackInuse),
		"StackSys":      float64(ms.StackSys),
		"Sys":           float64(ms.Sys),
		"TotalAlloc":    float64(ms.TotalAlloc),
		"RandomValue":   scan.generator.Float64(),
	}

	return scan.setGauges(gauges)
}

// updateWorkload Обновление метрик загрузки памяти и ядер процессора
func (scan *Scanner) updateWorkload() error {

	vm, errVM := mem.VirtualMemory()
	if errVM != nil {
		return fmt.Errorf("could not read virtual memory: %w", errVM)
	}

	gauges := map[string]float64{
		"TotalMemory": float64(vm.Total),
		"FreeMemory":  float64(vm.Free),
	}

	percentage, errCPU := cpu.Percent(0, true)
	if errCPU != nil {
		return fmt.Errorf("could not read cpu utilization: %w", errCPU)
	}

	for cpuID, cpuUtilization := range percentage {
		gauges["CPUutilization"+fmt.Sprint(cpuID+1)] = cpuUtilization
	}

	return scan.setGauges(gauges)
}

func (scan *Scanner) setGauges(gauges map[string]float64) error {

	for name, value := range gauges {
		m, err := metric.CreateMetric(metric.GaugeType, name, metric.WithValueFloat(value))
		if err != nil {
			return err
		}

		if err := scan.storage.Set(m, m.Key()); err != nil {
			return fmt.Errorf("could not update metric %s: %w", name, err)
		}
	}

	return nil
}

// incrementPollCount Счетчик опросов увеличивается на 1 при каждом сканировании
func (scan *Scanner) incrementPollCount() error {

	pollCount, _ := metric.CreateMetric(metric.CounterType, PollCount, metric.WithValueInt(1))

	prev, ok, err := scan.storage.Item(pollCount.Key())
	if err != nil {
		return fmt.Errorf("could not read %s: %w", PollCount, err)
	}

	if ok && prev.Delta != nil {
		count := *prev.Delta + 1
		pollCount.Delta = &count
	}

	return scan.storage.Set(pollCount, pollCount.Key())
}
