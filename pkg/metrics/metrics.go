// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exports job activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/walteh/vfsjob/pkg/job"
)

// 📈 Observer counts finished jobs, files and bytes
type Observer struct {
	jobsTotal  *prometheus.CounterVec
	filesTotal *prometheus.CounterVec
	bytesTotal *prometheus.CounterVec
	jobFiles   *prometheus.HistogramVec
}

// New registers the job metrics with reg.
func New(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		jobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vfsjob_jobs_total",
				Help: "Jobs that reached a terminal state",
			},
			[]string{"kind", "state"},
		),
		filesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vfsjob_files_total",
				Help: "Files handled by jobs",
			},
			[]string{"kind", "status"},
		),
		bytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vfsjob_bytes_total",
				Help: "Bytes written by transferred files",
			},
			[]string{"kind"},
		),
		jobFiles: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vfsjob_job_files",
				Help:    "Files handled per finished job",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"kind"},
		),
	}
}

func (o *Observer) OnProgress(*job.Handle, job.Snapshot) {}

func (o *Observer) OnFile(h *job.Handle, ev job.FileEvent) {
	o.filesTotal.WithLabelValues(h.Kind(), ev.Status.String()).Inc()
	if ev.Status == job.FileTransferred {
		o.bytesTotal.WithLabelValues(h.Kind()).Add(float64(ev.Bytes))
	}
}

func (o *Observer) OnTerminal(h *job.Handle, out job.Outcome) {
	o.jobsTotal.WithLabelValues(h.Kind(), out.State.String()).Inc()
	o.jobFiles.WithLabelValues(h.Kind()).Observe(float64(out.Summary.Files))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ job.Observer = (*Observer)(nil)
