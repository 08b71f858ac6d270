package quiz

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"mathsprint-quiz-service/internal/domain"
)

// Settings bound a single quiz run.
type Settings struct {
	TotalQuestions   int
	TimeLimit        time.Duration
	ShortAnswerEvery int // every Nth question is typed instead of multiple choice
}

// DefaultSettings mirrors the classic game: 30 questions, 4 minutes,
// every third question typed.
func DefaultSettings() Settings {
	return Settings{TotalQuestions: 30, TimeLimit: 4 * time.Minute, ShortAnswerEvery: 3}
}

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.TotalQuestions <= 0 {
		s.TotalQuestions = def.TotalQuestions
	}
	if s.TimeLimit <= 0 {
		s.TimeLimit = def.TimeLimit
	}
	if s.ShortAnswerEvery <= 0 {
		s.ShortAnswerEvery = def.ShortAnswerEvery
	}
	return s
}

// questionState tracks the per-question lifecycle. A presented question is
// answering; a scored one is evaluated until the session advances; terminal
// means no further questions will be presented.
type questionState int

const (
	stateAnswering questionState = iota
	stateEvaluated
	stateTerminal
)

// Session is the authoritative mutable record of one quiz run. All mutation
// flows through Submit, Advance and Tick under a single mutex, so the two
// asynchronous entry points (timer ticks and answer submissions) are
// serialized against each other.
type Session struct {
	id       string
	name     string
	settings Settings
	now      func() time.Time
	gen      *Generator

	mu                sync.Mutex
	state             questionState
	score             int
	currentIndex      int
	correctCount      int
	wrongCount        int
	correctStreak     int
	wrongStreak       int
	bestCorrectStreak int
	bestWrongStreak   int
	correctByFactor   [maxFactor + 1]int
	wrongByFactor     [maxFactor + 1]int
	log               []domain.QuestionRecord
	timeExpired       bool
	timeLeft          int // seconds
	startedAt         time.Time
	endedAt           time.Time

	current         domain.Problem
	options         []int
	questionShownAt time.Time

	subscribers map[chan domain.SessionEvent]struct{}
}

// NewSession validates the player name, initializes state and presents the
// first question.
func NewSession(id, name string, settings Settings) (*Session, error) {
	return NewSessionWithClock(id, name, settings, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id, name string, settings Settings, now func() time.Time) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	s := &Session{
		id:          id,
		name:        name,
		settings:    settings.withDefaults(),
		now:         now,
		gen:         NewGenerator(),
		subscribers: make(map[chan domain.SessionEvent]struct{}),
	}
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Name returns the player name the session was started with.
func (s *Session) Name() string { return s.name }

// Reset returns the session to its initial state for a fresh run.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.score = 0
	s.currentIndex = 1
	s.correctCount = 0
	s.wrongCount = 0
	s.correctStreak = 0
	s.wrongStreak = 0
	s.bestCorrectStreak = 0
	s.bestWrongStreak = 0
	s.correctByFactor = [maxFactor + 1]int{}
	s.wrongByFactor = [maxFactor + 1]int{}
	s.log = nil
	s.timeExpired = false
	s.timeLeft = int(s.settings.TimeLimit / time.Second)
	s.startedAt = s.now()
	s.endedAt = time.Time{}
	s.current = domain.Problem{}
	s.presentLocked()
}

// presentLocked generates the next problem and opens it for answering.
func (s *Session) presentLocked() {
	s.current = s.gen.Generate(s.current)
	if s.currentIndex%s.settings.ShortAnswerEvery == 0 {
		s.options = nil
	} else {
		s.options = s.gen.BuildOptions(s.current)
	}
	s.questionShownAt = s.now()
	s.state = stateAnswering

	view := s.questionViewLocked()
	s.broadcastLocked(domain.SessionEvent{Kind: domain.EventQuestion, Question: &view})
}

// CurrentQuestion returns the active question as presented to clients.
func (s *Session) CurrentQuestion() domain.QuestionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionViewLocked()
}

func (s *Session) questionViewLocked() domain.QuestionView {
	kind := domain.AnswerMultiple
	if s.options == nil {
		kind = domain.AnswerShort
	}
	return domain.QuestionView{
		Index:   s.currentIndex,
		Total:   s.settings.TotalQuestions,
		A:       s.current.A,
		B:       s.current.B,
		Kind:    kind,
		Options: append([]int(nil), s.options...),
	}
}

// Submit evaluates an answer against the current problem and applies the
// scoring rules. Submissions while the previous answer is still being
// evaluated, or after the session finished, are rejected so a double press
// cannot change state twice.
func (s *Session) Submit(sub domain.AnswerSubmission) (domain.AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateTerminal:
		return domain.AnswerResult{}, domain.ErrSessionFinished
	case stateEvaluated:
		return domain.AnswerResult{}, domain.ErrDuplicateSubmission
	}

	elapsed := s.now().Sub(s.questionShownAt).Seconds()
	problem := s.current
	correct := sub.Value == problem.Answer

	s.log = append(s.log, domain.QuestionRecord{
		Index:            s.currentIndex,
		A:                problem.A,
		B:                problem.B,
		Kind:             sub.Kind,
		CorrectAnswer:    problem.Answer,
		GivenAnswer:      sub.Value,
		Correct:          correct,
		TimeSpentSeconds: elapsed,
	})

	var result domain.AnswerResult
	if correct {
		result = s.scoreCorrectLocked(problem)
	} else {
		result = s.scoreWrongLocked(problem)
	}
	result.CorrectAnswer = problem.Answer
	result.TotalScore = s.score

	s.currentIndex++
	s.state = stateEvaluated
	return result, nil
}

func (s *Session) scoreCorrectLocked(p domain.Problem) domain.AnswerResult {
	s.correctCount++
	s.correctStreak++
	s.wrongStreak = 0
	if s.correctStreak > s.bestCorrectStreak {
		s.bestCorrectStreak = s.correctStreak
	}
	s.correctByFactor[p.A]++
	s.correctByFactor[p.B]++

	delta := 10
	s.score += 10

	// Thresholds are exact streak values: the streak only resets on a wrong
	// answer, so each bonus fires at most once per unbroken run.
	switch s.correctStreak {
	case 12:
		s.score += 40
		delta += 40
		return domain.AnswerResult{
			Correct:        true,
			ScoreDelta:     delta,
			Feedback:       domain.FeedbackStreakBonus,
			BonusTriggered: true,
			Message:        fmt.Sprintf("%s, outstanding! +40 bonus!", s.name),
		}
	case 4:
		s.score += 15
		delta += 15
		return domain.AnswerResult{
			Correct:        true,
			ScoreDelta:     delta,
			Feedback:       domain.FeedbackStreakBonus,
			BonusTriggered: true,
			Message:        fmt.Sprintf("%s, you're on a roll! +15 bonus!", s.name),
		}
	}
	return domain.AnswerResult{
		Correct:    true,
		ScoreDelta: delta,
		Feedback:   domain.FeedbackCorrect,
		Message:    "Correct! +10",
	}
}

func (s *Session) scoreWrongLocked(p domain.Problem) domain.AnswerResult {
	s.wrongCount++
	s.correctStreak = 0
	s.wrongStreak++
	if s.wrongStreak > s.bestWrongStreak {
		s.bestWrongStreak = s.wrongStreak
	}
	s.wrongByFactor[p.A]++
	s.wrongByFactor[p.B]++

	if s.wrongStreak >= 4 {
		delta := -s.score
		s.score = 0
		s.wrongStreak = 0
		return domain.AnswerResult{
			ScoreDelta: delta,
			Feedback:   domain.FeedbackStreakPenalty,
			Message:    "4 wrong in a row! Score reset.",
		}
	}

	delta := -3
	if s.score < 3 {
		delta = -s.score
	}
	s.score += delta
	return domain.AnswerResult{
		ScoreDelta: delta,
		Feedback:   domain.FeedbackWrong,
		Message:    fmt.Sprintf("Wrong! The answer was %d.", p.Answer),
	}
}

// Advance presents the next question after the feedback window, or finishes
// the session when the question quota is exhausted. It reports whether the
// session is terminal afterwards. Calling it on an already-terminal session
// (the timer may have expired during the feedback window) is a no-op.
func (s *Session) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateTerminal:
		return true
	case stateAnswering:
		return false
	}

	if s.currentIndex > s.settings.TotalQuestions {
		s.finishLocked()
		return true
	}
	s.presentLocked()
	return false
}

// Tick consumes one countdown second. On reaching zero it marks the session
// expired and forces the terminal state regardless of question progress.
func (s *Session) Tick() domain.TimerEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateTerminal {
		return s.timerEventLocked()
	}

	s.timeLeft--
	if s.timeLeft <= 0 {
		s.timeLeft = 0
		s.timeExpired = true
		s.finishLocked()
	}

	ev := s.timerEventLocked()
	s.broadcastLocked(domain.SessionEvent{Kind: domain.EventTimer, Timer: &ev})
	return ev
}

func (s *Session) timerEventLocked() domain.TimerEvent {
	return domain.TimerEvent{
		SecondsLeft: s.timeLeft,
		Display:     fmt.Sprintf("%02d:%02d", s.timeLeft/60, s.timeLeft%60),
		Warning:     s.timeLeft < 60,
		Expired:     s.timeExpired,
	}
}

// finishLocked is the single authoritative terminal transition; both the
// quota path and the expiry path funnel through it, so whichever fires
// second is a no-op.
func (s *Session) finishLocked() {
	if s.state == stateTerminal {
		return
	}
	s.state = stateTerminal
	s.endedAt = s.now()

	report := s.buildReportLocked()
	s.broadcastLocked(domain.SessionEvent{Kind: domain.EventReport, Report: &report})
}

// Terminal reports whether the session reached its terminal state.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateTerminal
}

// Score returns the current score.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Report builds the performance summary. It is only valid once the session
// is terminal; before that the analytics are still accumulating.
func (s *Session) Report() (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateTerminal {
		return domain.Report{}, domain.ErrSessionActive
	}
	return s.buildReportLocked(), nil
}

// Subscribe returns a channel receiving session events (questions, timer
// ticks, the final report). The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.SessionEvent, func()) {
	ch := make(chan domain.SessionEvent, 16)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.questionViewLocked()
	s.mu.Unlock()

	ch <- domain.SessionEvent{Kind: domain.EventQuestion, Question: &initial}

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(ev domain.SessionEvent) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest pending event so a slow client cannot block.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
