// Package pipeline derives display state from a workflow's ordered stages.
package pipeline

import "deployment-portal/backend/pkg/models"

// CurrentStageIndex returns the index of the first in-progress stage, or
// failing that the first pending stage, or failing that the last stage.
// It returns -1 when there are no stages. Stage order is taken as given;
// nothing checks that earlier stages completed first.
func CurrentStageIndex(stages []models.WorkflowStage) int {
	if len(stages) == 0 {
		return -1
	}
	for i, s := range stages {
		if s.Status == models.StageInProgress {
			return i
		}
	}
	for i, s := range stages {
		if s.Status == models.StagePending {
			return i
		}
	}
	return len(stages) - 1
}

// StageView is a stage annotated for rendering.
type StageView struct {
	models.WorkflowStage
	Index int `json:"index"`
	// Reached is set for every stage before the current one, whatever its
	// own status says.
	Reached bool `json:"reached"`
	Current bool `json:"current"`
}

// Timeline annotates each stage of w relative to its current stage.
func Timeline(w models.Workflow) []StageView {
	current := CurrentStageIndex(w.Stages)
	views := make([]StageView, len(w.Stages))
	for i, s := range w.Stages {
		views[i] = StageView{
			WorkflowStage: s,
			Index:         i,
			Reached:       i < current,
			Current:       i == current,
		}
	}
	return views
}

// Summary is the card-level view of a workflow.
type Summary struct {
	CurrentStage    int  `json:"current_stage"`
	TotalStages     int  `json:"total_stages"`
	ProgressPercent int  `json:"progress_percent"`
	Blocked         bool `json:"blocked"`
	OpenIssues      int  `json:"open_issues"`
}

// Summarize reports the 1-based current stage alongside the record's own
// progress figure, which is passed through untouched.
func Summarize(w models.Workflow) Summary {
	sum := Summary{
		CurrentStage:    CurrentStageIndex(w.Stages) + 1,
		TotalStages:     len(w.Stages),
		ProgressPercent: w.ProgressPercent,
	}
	for _, s := range w.Stages {
		if s.Status == models.StageBlocked {
			sum.Blocked = true
		}
		sum.OpenIssues += s.Issues
	}
	return sum
}
