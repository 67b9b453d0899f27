package metrics

import (
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sk"

var _ ports.WorkflowRecorder = (*Recorder)(nil)

type Recorder struct {
	workflowRuns *prometheus.CounterVec
	pollAttempts prometheus.Histogram
	setups       *prometheus.CounterVec
}

// NewRecorder registers the workflow collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		workflowRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_total",
			Help:      "workflow runs by outcome and failed stage",
		}, []string{"workflow", "outcome", "stage"}),
		pollAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "arrival_poll_attempts",
			Help:      "balance polls spent waiting for bridged funds",
			Buckets:   []float64{1, 2, 3, 5, 10, 15, 20, 30, 60},
		}),
		setups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "setup_total",
			Help:      "session setup attempts by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(r.workflowRuns, r.pollAttempts, r.setups)

	return r
}

func (r *Recorder) RecordWorkflow(workflow string, result domain.WorkflowResult) {
	stage := string(result.FailedStage)
	if result.Success {
		stage = string(domain.StageCompleted)
	}
	r.workflowRuns.WithLabelValues(workflow, result.Outcome(), stage).Inc()
}

func (r *Recorder) RecordPollAttempts(attempts int) {
	r.pollAttempts.Observe(float64(attempts))
}

func (r *Recorder) RecordSetup(outcome string) {
	r.setups.WithLabelValues(outcome).Inc()
}
