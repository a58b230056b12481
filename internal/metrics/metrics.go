// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics records lifecycle stage outcomes and cache behavior.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one host run. A nil *Metrics records
// nothing.
type Metrics struct {
	reg *prometheus.Registry

	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	packagedFiles prometheus.Counter
}

// New returns metrics registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		stageTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pkgrecipe_stage_total",
				Help: "Total number of lifecycle stage runs by outcome",
			},
			[]string{"stage", "result"},
		),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pkgrecipe_stage_duration_seconds",
				Help:    "Duration of lifecycle stages in seconds",
				Buckets: []float64{0.01, 0.1, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),
		cacheHits: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pkgrecipe_cache_hits_total",
				Help: "Total number of package cache hits",
			},
		),
		cacheMisses: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pkgrecipe_cache_misses_total",
				Help: "Total number of package cache misses",
			},
		),
		packagedFiles: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pkgrecipe_packaged_files_total",
				Help: "Total number of files placed into install layouts",
			},
		),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObserveStage records one stage run.
func (m *Metrics) ObserveStage(stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.stageTotal.WithLabelValues(stage, result).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// CacheHit records a cache hit.
func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

// CacheMiss records a cache miss.
func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

// PackagedFiles records n files copied into an install layout.
func (m *Metrics) PackagedFiles(n int) {
	if m != nil {
		m.packagedFiles.Add(float64(n))
	}
}

// WriteFile writes the metrics in the Prometheus text format to path,
// for collection by a node exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
