package queue

import (
	"testing"

	"opportunity-finder/models"
)

func TestFeedbackLabelsShiftWithOutcome(t *testing.T) {
	sc := &models.OpportunityScore{
		PainScore:    6,
		TAMScore:     5,
		GapScore:     5,
		AIFitScore:   5,
		SoloFitScore: 5,
		RiskScore:    4,
	}

	good := feedbackLabels(sc, 1.0)
	if got := good[models.DimPain]; got != 8.0 {
		t.Errorf("good outcome pain label %v, want 8.0", got)
	}
	if got := good[models.DimRisk]; got != 2.0 {
		t.Errorf("good outcome risk label %v, want 2.0", got)
	}

	bad := feedbackLabels(sc, 0.0)
	if got := bad[models.DimPain]; got != 4.0 {
		t.Errorf("bad outcome pain label %v, want 4.0", got)
	}
	if got := bad[models.DimRisk]; got != 6.0 {
		t.Errorf("bad outcome risk label %v, want 6.0", got)
	}

	neutral := feedbackLabels(sc, 0.5)
	for _, dim := range models.Dimensions {
		if neutral[dim] != sc.Dimension(dim) {
			t.Errorf("neutral outcome moved %s: %v != %v", dim, neutral[dim], sc.Dimension(dim))
		}
	}
}

func TestFeedbackLabelsAreClamped(t *testing.T) {
	sc := &models.OpportunityScore{
		PainScore:    9.5,
		TAMScore:     0.5,
		GapScore:     5,
		AIFitScore:   5,
		SoloFitScore: 5,
		RiskScore:    0.5,
	}

	labels := feedbackLabels(sc, 1.0)
	if got := labels[models.DimPain]; got != 10.0 {
		t.Errorf("pain label %v, want clamp at 10", got)
	}
	if got := labels[models.DimRisk]; got != 0.0 {
		t.Errorf("risk label %v, want clamp at 0", got)
	}

	labels = feedbackLabels(sc, 0.0)
	if got := labels[models.DimTAM]; got != 0.0 {
		t.Errorf("tam label %v, want clamp at 0", got)
	}
}

func TestTaskCreators(t *testing.T) {
	fb := &models.OutcomeFeedback{OpportunityID: "x", Outcome: 0.7, Source: "report_click"}
	task, err := NewOutcomeFeedbackTask(fb)
	if err != nil {
		t.Fatalf("create task error: %v", err)
	}
	if task.Type() != TaskOutcomeFeedback {
		t.Errorf("got type %q, want %q", task.Type(), TaskOutcomeFeedback)
	}

	retrain, err := NewModelRetrainTask()
	if err != nil {
		t.Fatalf("create task error: %v", err)
	}
	if retrain.Type() != TaskModelRetrain {
		t.Errorf("got type %q, want %q", retrain.Type(), TaskModelRetrain)
	}
}
