package metrics

import (
	"testing"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsWorkflowOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := NewRecorder(reg)

	recorder.RecordWorkflow("bridge_and_supply", domain.WorkflowResult{Success: true})
	recorder.RecordWorkflow("bridge_and_supply", domain.WorkflowResult{FailedStage: domain.FailedArrival})
	recorder.RecordWorkflow("bridge_and_supply", domain.WorkflowResult{FailedStage: domain.FailedArrival})
	recorder.RecordWorkflow("supply", domain.WorkflowResult{FailedStage: domain.FailedDeposit})

	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.workflowRuns.WithLabelValues("bridge_and_supply", "success", "completed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.workflowRuns.WithLabelValues("bridge_and_supply", "pending", "arrival")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.workflowRuns.WithLabelValues("supply", "failed", "deposit")))
}

func TestRecorderSetupAndPolls(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := NewRecorder(reg)

	recorder.RecordSetup("success")
	recorder.RecordSetup("delegation_failed")
	recorder.RecordPollAttempts(4)
	recorder.RecordWorkflow("supply", domain.WorkflowResult{Success: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.setups.WithLabelValues("success")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	assert.ElementsMatch(t, []string{"sk_workflow_runs_total", "sk_arrival_poll_attempts", "sk_setup_total"}, names)
}
