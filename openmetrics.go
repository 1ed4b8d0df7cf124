package embodiedcarbon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Collector sends the metrics of an estimation. Errors are reported on errs
// and never stop the collection.
type Collector interface {
	CollectMetrics(ctx context.Context, metrics chan *Metric, errs chan error)
}

const contentType = "application/openmetrics-text; version=1.0.0; charset=utf-8"

// OpenMetricsHandler implements the http.Handler interface
type OpenMetricsHandler struct {
	defaultTimeout time.Duration
	collector      Collector
	collectorName  string
}

// NewOpenMetricsHandler create a new OpenMetricsHandler
func NewOpenMetricsHandler(collectorName string, collector Collector) *OpenMetricsHandler {
	return &OpenMetricsHandler{
		defaultTimeout: 10 * time.Second,
		collector:      collector,
		collectorName:  collectorName,
	}
}

// ServeHTTP implements the http.Handler interface. It collects all metrics from the configured
// collector and return them, formatted in the http response.
func (handler *OpenMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	collected := make(chan *Metric)
	metrics := make(chan *Metric)
	errs := make(chan error)
	errCount := new(atomic.Int64)

	baseLabels := map[string]string{
		"collector": handler.collectorName,
	}

	errg, errgctx := errgroup.WithContext(r.Context())
	errgctx, cancel := context.WithTimeout(errgctx, handler.defaultTimeout)
	defer cancel()

	errg.Go(func() error {
		defer close(collected)
		defer close(errs)

		handler.collector.CollectMetrics(errgctx, collected, errs)

		return nil
	})

	errg.Go(func() error {
		defer close(metrics)
		forward := func(metric *Metric) {
			select {
			case <-errgctx.Done():
			case metrics <- metric:
			}
		}

		for metric := range collected {
			if metric == nil {
				continue
			}
			metric.Labels = MergeLabels(metric.Labels, baseLabels)
			forward(metric)
		}

		forward(&Metric{
			Name:   "collect_duration_ms",
			Labels: baseLabels,
			Value:  float64(time.Since(start).Milliseconds()),
		})

		forward(&Metric{
			Name:   "error_count",
			Labels: baseLabels,
			Value:  float64(errCount.Load()),
		})

		return nil
	})

	errg.Go(func() error {
		for err := range errs {
			if err == nil {
				continue
			}

			errCount.Add(1)

			elementErr := new(ElementErr)
			if errors.As(err, &elementErr) {
				slog.Warn("metrics collection failed", "err", elementErr, "op", elementErr.Operation)
				continue
			}
			slog.Warn("metrics collection failed", "err", err.Error())
		}

		return nil
	})

	w.Header().Set("Content-Type", contentType)
	errg.Go(func() error {
		return writeMetrics(errgctx, w, metrics)
	})

	err := errg.Wait()
	if err != nil {
		slog.Error("failed to collect metrics", "err", err.Error())
		http.Error(w, err.Error(), 500)
		return
	}

	slog.Info("metrics have been successfully collected", "duration_ms", time.Since(start).Milliseconds())
}

// writeMetrics writes the metrics sent over the channel as gauges. Each
// family gets its TYPE line before its first sample and the exposition ends
// with EOF once the channel is closed.
func writeMetrics(ctx context.Context, w io.Writer, metrics chan *Metric) error {
	typed := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return nil
		case metric, ok := <-metrics:
			if !ok {
				_, err := io.WriteString(w, "# EOF\n")
				return err
			}

			if metric == nil {
				slog.Warn("discarding nil metric")
				continue
			}
			if !typed[metric.Name] {
				typed[metric.Name] = true
				if _, err := fmt.Fprintf(w, "# TYPE %s gauge\n", metric.Name); err != nil {
					return fmt.Errorf("failed to write metric family %s: %w", metric.Name, err)
				}
			}
			if err := writeMetric(w, metric); err != nil {
				return fmt.Errorf("failed to write metric on writer: %w", err)
			}
		}
	}
}

func writeMetric(w io.Writer, metric *Metric) error {
	metric = metric.SanitizeLabels()

	// sort labels in lexicographical order
	labels := make([]string, 0, len(metric.Labels))
	for labelName, labelValue := range metric.Labels {
		labels = append(labels, fmt.Sprintf(`%s="%s"`, labelName, labelValue))
	}
	slices.SortFunc(labels, strings.Compare)

	_, err := fmt.Fprintf(w, "%s{%s} %0.10f\n", metric.Name, strings.Join(labels, ","), metric.Value)
	if err != nil {
		return fmt.Errorf("writing metric %s failed: %w", metric.Name, err)
	}

	return nil
}

// Metric olds the name and value of a measurement in addition to its labels.
type Metric struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Clone return a deep copy of a metric.
func (m Metric) Clone() Metric {
	copiedLabel := make(map[string]string, len(m.Labels))
	maps.Copy(copiedLabel, m.Labels)
	return Metric{
		Name:   m.Name,
		Value:  m.Value,
		Labels: copiedLabel,
	}
}

func (m *Metric) AddLabel(key, value string) *Metric {
	m.Labels = MergeLabels(
		m.Labels,
		map[string]string{
			key: value,
		},
	)
	return m
}

func (m *Metric) SetLabels(l map[string]string) *Metric {
	m.Labels = l
	return m
}

func (m *Metric) SetValue(v float64) *Metric {
	m.Value = v
	return m
}

// SanitizeLabels replaces the characters OpenMetrics forbids in label names.
func (m *Metric) SanitizeLabels() *Metric {
	newLabels := make(map[string]string)
	invalidChars := []string{".", "/", "-", ":", ";", " "}
	for label, value := range m.Labels {
		for _, char := range invalidChars {
			label = strings.ReplaceAll(label, char, "_")
		}
		newLabels[label] = strings.ReplaceAll(value, `"`, `\"`)
	}
	m.Labels = newLabels
	return m
}

// MergeLabels merges label sets, later sets win. Empty values are dropped.
func MergeLabels(labels ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, l := range labels {
		for k, v := range l {
			if v == "" {
				continue
			}
			result[k] = v
		}
	}
	return result
}

// NewEmissionsMetric returns an embodied carbon measurement in kg CO2e.
func NewEmissionsMetric(value Emissions) *Metric {
	return &Metric{
		Name:  "estimated_embodied_emissions_kgCO2eq",
		Value: value.KgCO2eq(),
	}
}
