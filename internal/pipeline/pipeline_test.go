package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"deployment-portal/backend/pkg/models"
)

func stagesOf(statuses ...models.StageStatus) []models.WorkflowStage {
	stages := make([]models.WorkflowStage, len(statuses))
	for i, st := range statuses {
		stages[i] = models.WorkflowStage{ID: i + 1, Name: models.StandardStages[i%5].Name, Status: st}
	}
	return stages
}

func TestCurrentStageIndex(t *testing.T) {
	const (
		c = models.StageCompleted
		p = models.StagePending
		r = models.StageInProgress
		b = models.StageBlocked
	)
	tests := []struct {
		name   string
		stages []models.WorkflowStage
		want   int
	}{
		{"first in progress", stagesOf(c, c, r, p, p), 2},
		{"in progress wins over earlier pending", stagesOf(c, p, c, r, p), 3},
		{"first pending when nothing in progress", stagesOf(c, b, p, p, p), 2},
		{"all completed resolves to last", stagesOf(c, c, c, c, c), 4},
		{"blocked and completed resolves to last", stagesOf(c, b, c, c, c), 4},
		{"single pending", stagesOf(p), 0},
		{"empty", nil, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentStageIndex(tt.stages))
		})
	}
}

func TestTimeline_ReachedIgnoresStageStatus(t *testing.T) {
	w := models.Workflow{
		Stages: stagesOf(models.StageCompleted, models.StagePending, models.StageCompleted, models.StageInProgress, models.StagePending),
	}

	var reached, current []int
	for _, v := range Timeline(w) {
		if v.Reached {
			reached = append(reached, v.Index)
		}
		if v.Current {
			current = append(current, v.Index)
		}
	}

	if diff := cmp.Diff([]int{0, 1, 2}, reached); diff != "" {
		t.Errorf("reached stages mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{3}, current)
}

func TestSummarize_PassesProgressThrough(t *testing.T) {
	w := models.Workflow{
		ProgressPercent: 40,
		Stages:          stagesOf(models.StageCompleted, models.StageBlocked, models.StagePending, models.StagePending, models.StagePending),
	}
	w.Stages[1].Issues = 2
	w.Stages[2].Issues = 1

	got := Summarize(w)

	want := Summary{CurrentStage: 3, TotalStages: 5, ProgressPercent: 40, Blocked: true, OpenIssues: 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}
