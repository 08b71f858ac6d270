package quiz

import (
	"strings"
	"testing"
	"time"

	"mathsprint-quiz-service/internal/domain"
)

// reportFixture builds a terminal session with handcrafted analytics so the
// aggregation rules can be exercised directly.
func reportFixture(answered, correct int, duration time.Duration) *Session {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s := &Session{
		name:      "Ada",
		settings:  DefaultSettings(),
		now:       time.Now,
		state:     stateTerminal,
		startedAt: start,
		endedAt:   start.Add(duration),
	}
	s.correctCount = correct
	s.wrongCount = answered - correct
	for i := 0; i < answered; i++ {
		s.log = append(s.log, domain.QuestionRecord{Index: i + 1, A: 2, B: 3, Correct: i < correct})
	}
	return s
}

func TestReportAccuracyAndAverages(t *testing.T) {
	s := reportFixture(10, 7, 50*time.Second)

	report, err := s.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Accuracy != 70 {
		t.Fatalf("expected accuracy 70, got %d", report.Accuracy)
	}
	if report.TotalTimeUsedSeconds != 50 || report.AvgTimePerQuestion != 5.0 {
		t.Fatalf("unexpected timing: %+v", report)
	}
}

func TestReportEmptySessionDefaults(t *testing.T) {
	s := reportFixture(0, 0, 0)

	report, err := s.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Accuracy != 0 || report.AvgTimePerQuestion != 0 {
		t.Fatalf("expected zeroed metrics, got %+v", report)
	}
	if report.Pacing != PacingCalm {
		t.Fatalf("expected default pacing, got %q", report.Pacing)
	}
}

func TestReportPacingClassification(t *testing.T) {
	cases := []struct {
		duration time.Duration
		want     string
	}{
		{30 * time.Second, PacingVeryFast}, // 3s avg
		{60 * time.Second, PacingGood},     // 6s avg
		{90 * time.Second, PacingBalanced}, // 9s avg
		{120 * time.Second, PacingCalm},    // 12s avg
	}
	for _, tc := range cases {
		report, err := reportFixture(10, 10, tc.duration).Report()
		if err != nil {
			t.Fatalf("report: %v", err)
		}
		if report.Pacing != tc.want {
			t.Fatalf("duration %v: expected pacing %q, got %q", tc.duration, tc.want, report.Pacing)
		}
	}
}

func TestReportWeakAndStrongFactors(t *testing.T) {
	s := reportFixture(6, 3, 60*time.Second)
	s.wrongByFactor[7] = 3
	s.wrongByFactor[9] = 2
	s.wrongByFactor[2] = 1
	s.correctByFactor[3] = 4
	s.correctByFactor[5] = 2

	report, err := s.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.WeakFactors) != 2 || report.WeakFactors[0] != 7 || report.WeakFactors[1] != 9 {
		t.Fatalf("expected weak factors [7 9], got %v", report.WeakFactors)
	}
	if len(report.StrongFactors) != 2 || report.StrongFactors[0] != 3 || report.StrongFactors[1] != 5 {
		t.Fatalf("expected strong factors [3 5], got %v", report.StrongFactors)
	}
	if !strings.Contains(report.Growth, "7 and 9") || !strings.Contains(report.NextStep, "7 and 9") {
		t.Fatalf("expected growth note naming weak factors, got %q / %q", report.Growth, report.NextStep)
	}
}

func TestReportNarrativeSelectionOrder(t *testing.T) {
	// High accuracy wins over everything else.
	s := reportFixture(10, 9, 100*time.Second)
	s.bestCorrectStreak = 9
	report, _ := s.Report()
	if !strings.Contains(report.Strength, "accuracy") {
		t.Fatalf("expected accuracy message, got %q", report.Strength)
	}

	// Low accuracy but a long best streak picks the streak message.
	s = reportFixture(10, 5, 100*time.Second)
	s.bestCorrectStreak = 6
	report, _ = s.Report()
	if !strings.Contains(report.Strength, "streak") {
		t.Fatalf("expected streak message, got %q", report.Strength)
	}

	// Fast pace without accuracy or streak picks the speed message.
	s = reportFixture(10, 5, 40*time.Second)
	report, _ = s.Report()
	if !strings.Contains(report.Strength, "speed") {
		t.Fatalf("expected speed message, got %q", report.Strength)
	}

	// Nothing stands out: generic encouragement.
	s = reportFixture(4, 1, 60*time.Second)
	report, _ = s.Report()
	if !strings.Contains(report.Strength, "best") {
		t.Fatalf("expected generic encouragement, got %q", report.Strength)
	}
}

func TestTopFactorsTieBreaksOnSmallerFactor(t *testing.T) {
	var counts [maxFactor + 1]int
	counts[4] = 2
	counts[6] = 2
	counts[8] = 1

	top := topFactors(counts)
	if len(top) != 2 || top[0] != 4 || top[1] != 6 {
		t.Fatalf("expected [4 6], got %v", top)
	}
}
