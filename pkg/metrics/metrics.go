/*
   Copyright @ 2021 bocloud <fushaosong@beyondcent.com>.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	// ResultSkipped marks a pass that stopped at the membership check
	ResultSkipped = "skipped"
)

var (
	reconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_total",
		Help:      "The number of reconciliation passes by result.",
	}, []string{"result"})

	reconcileDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reconcile_duration_seconds",
		Help:      "Duration of a reconciliation pass.",
		Buckets:   []float64{.05, .1, .5, 1, 5, 10, 30, 60, 120, 300},
	})

	provisionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provision_total",
		Help:      "The number of devices provisioned into the pool by result.",
	}, []string{"result"})

	provisionFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provision_failures_total",
		Help:      "The number of provisioning failures by step.",
	}, []string{"step"})
)

// Registry holds every poolkeeper metric plus the go and process collectors
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		reconcileTotal,
		reconcileDuration,
		provisionTotal,
		provisionFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)
}

// RegisterDevices exposes the device registry through a PoolkeeperCollector
func RegisterDevices(devices DeviceLister) error {
	return Registry.Register(NewPoolkeeperCollector(devices))
}

func ObserveReconcile(result string, d time.Duration) {
	reconcileTotal.WithLabelValues(result).Inc()
	reconcileDuration.Observe(d.Seconds())
}

func ProvisionSucceeded() {
	provisionTotal.WithLabelValues(ResultSuccess).Inc()
}

func ProvisionFailed(step string) {
	provisionTotal.WithLabelValues(ResultFailure).Inc()
	provisionFailures.WithLabelValues(step).Inc()
}
