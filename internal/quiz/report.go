package quiz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"mathsprint-quiz-service/internal/domain"
)

// Pacing labels by average seconds per question.
const (
	PacingVeryFast = "very fast"
	PacingGood     = "good pace"
	PacingBalanced = "balanced"
	PacingCalm     = "calm and careful"
)

// buildReportLocked aggregates the accumulated analytics into the
// end-of-game summary. Caller holds s.mu.
func (s *Session) buildReportLocked() domain.Report {
	totalAnswered := len(s.log)

	accuracy := 0
	if totalAnswered > 0 {
		accuracy = int(math.Round(float64(s.correctCount) / float64(totalAnswered) * 100))
	}

	totalTimeUsed := int(math.Round(s.endedAt.Sub(s.startedAt).Seconds()))
	avgTime := 0.0
	if totalAnswered > 0 {
		avgTime = float64(totalTimeUsed) / float64(totalAnswered)
	}

	pacing := PacingCalm
	if totalAnswered > 0 {
		switch {
		case avgTime <= 4:
			pacing = PacingVeryFast
		case avgTime <= 7:
			pacing = PacingGood
		case avgTime <= 10:
			pacing = PacingBalanced
		}
	}

	weak := topFactors(s.wrongByFactor)
	strong := topFactors(s.correctByFactor)

	strength := "You're giving it your very best."
	switch {
	case accuracy >= 80 && totalAnswered > 5:
		strength = "Your accuracy is truly outstanding."
	case s.bestCorrectStreak >= 6:
		strength = "You're great at building streaks."
	case avgTime < 6 && totalAnswered > 5:
		strength = "Your answering speed is incredibly good."
	}

	growth := ""
	nextStep := "Tomorrow: 5 minutes of general practice + 10 questions!"
	if len(weak) > 0 {
		names := factorList(weak)
		growth = fmt.Sprintf("It looks like the %s times tables could use a bit more practice.", names)
		nextStep = fmt.Sprintf("Tomorrow: 5 minutes on the %s times tables + 10 questions!", names)
	}

	return domain.Report{
		PlayerName:           s.name,
		Score:                s.score,
		TotalQuestions:       s.settings.TotalQuestions,
		TotalAnswered:        totalAnswered,
		CorrectCount:         s.correctCount,
		WrongCount:           s.wrongCount,
		Accuracy:             accuracy,
		BestCorrectStreak:    s.bestCorrectStreak,
		BestWrongStreak:      s.bestWrongStreak,
		TimeExpired:          s.timeExpired,
		TotalTimeUsedSeconds: totalTimeUsed,
		AvgTimePerQuestion:   avgTime,
		Pacing:               pacing,
		WeakFactors:          weak,
		StrongFactors:        strong,
		Strength:             strength,
		Growth:               growth,
		NextStep:             nextStep,
	}
}

// topFactors ranks factors 1-9 by count descending and keeps the top two
// with a nonzero count. Ties keep the smaller factor first.
func topFactors(counts [maxFactor + 1]int) []int {
	factors := make([]int, 0, maxFactor)
	for f := minFactor; f <= maxFactor; f++ {
		factors = append(factors, f)
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return counts[factors[i]] > counts[factors[j]]
	})

	top := make([]int, 0, 2)
	for _, f := range factors {
		if counts[f] > 0 {
			top = append(top, f)
		}
		if len(top) == 2 {
			break
		}
	}
	return top
}

func factorList(factors []int) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = fmt.Sprintf("%d", f)
	}
	return strings.Join(parts, " and ")
}
