package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	cause := errors.New("x")
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeSuccess},
		{domain.NewNodeError("n", domain.ErrInputValidation, cause), OutcomeInputValidation},
		{domain.NewNodeError("n", domain.ErrLogic, cause), OutcomeLogic},
		{domain.NewNodeError("n", domain.ErrOutputValidation, cause), OutcomeOutputValidation},
		{domain.NewNodeError("n", domain.ErrDependency, cause), OutcomeDependency},
		{domain.NewNodeError("n", domain.ErrLogic, context.Canceled), OutcomeCanceled},
		{cause, OutcomeError},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.err), func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestMetrics_ObserveCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveCall("merge_node", nil, 10*time.Millisecond)
	m.ObserveCall("merge_node", nil, 20*time.Millisecond)
	m.ObserveCall("merge_node", domain.NewNodeError("n", domain.ErrLogic, errors.New("x")), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodeCallsTotal.WithLabelValues("merge_node", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeCallsTotal.WithLabelValues("merge_node", OutcomeLogic)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.NodeCallDurationSeconds))
}

func TestMetrics_Runs(t *testing.T) {
	m := NewMetrics(nil)

	m.RunStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveRuns))
	m.RunFinished(domain.RunCompleted, time.Second)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("COMPLETED")))
}
