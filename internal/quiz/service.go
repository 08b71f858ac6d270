package quiz

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"mathsprint-quiz-service/internal/domain"
)

// SessionRepository abstracts how live sessions are stored (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(id string, session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// ResultArchive stores finished-run reports. The live session remains the
// source of truth; the archive only serves reports after a session is gone.
type ResultArchive interface {
	Save(ctx context.Context, id string, report domain.Report) error
	Load(ctx context.Context, id string) (domain.Report, error)
}

// GameService contains the quiz use cases: starting runs, routing answers,
// driving per-session timers and producing reports.
type GameService struct {
	sessions      SessionRepository
	archive       ResultArchive // optional
	settings      Settings
	feedbackDelay time.Duration

	mu     sync.Mutex
	timers map[string]*Timer
}

// NewGameService wires the service. A feedbackDelay of zero or below
// advances to the next question synchronously, which tests rely on.
func NewGameService(sessions SessionRepository, archive ResultArchive, settings Settings, feedbackDelay time.Duration) *GameService {
	return &GameService{
		sessions:      sessions,
		archive:       archive,
		settings:      settings,
		feedbackDelay: feedbackDelay,
		timers:        make(map[string]*Timer),
	}
}

// Start validates the player name and begins a new timed run.
func (g *GameService) Start(_ context.Context, name string) (*Session, error) {
	id := uuid.NewString()
	session, err := NewSession(id, name, g.settings)
	if err != nil {
		return nil, err
	}
	g.sessions.Put(id, session)
	g.startTimer(id)
	return session, nil
}

// Session exposes a live session to the presentation adapter.
func (g *GameService) Session(id string) (*Session, bool) {
	return g.sessions.Get(id)
}

// Submit scores an answer and schedules the next question after the feedback
// window. Duplicate submissions and submissions after the terminal state
// surface as errors the adapter is expected to swallow.
func (g *GameService) Submit(_ context.Context, id string, sub domain.AnswerSubmission) (domain.AnswerResult, error) {
	session, ok := g.sessions.Get(id)
	if !ok {
		return domain.AnswerResult{}, domain.ErrSessionNotFound
	}

	result, err := session.Submit(sub)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	if g.feedbackDelay <= 0 {
		g.advance(id)
	} else {
		time.AfterFunc(g.feedbackDelay, func() { g.advance(id) })
	}
	return result, nil
}

// Restart resets an existing session for a fresh run with the same player.
func (g *GameService) Restart(_ context.Context, id string) error {
	session, ok := g.sessions.Get(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	g.stopTimer(id)
	session.Reset()
	g.startTimer(id)
	return nil
}

// Report returns the summary for a finished run, falling back to the
// archive once the live session is gone.
func (g *GameService) Report(ctx context.Context, id string) (domain.Report, error) {
	if session, ok := g.sessions.Get(id); ok {
		return session.Report()
	}
	if g.archive != nil {
		return g.archive.Load(ctx, id)
	}
	return domain.Report{}, domain.ErrSessionNotFound
}

// Close drops a session and its timer, e.g. when the client disconnects.
func (g *GameService) Close(id string) {
	g.stopTimer(id)
	g.sessions.Delete(id)
}

func (g *GameService) startTimer(id string) {
	timer := NewTimer(time.Second, func() { g.tick(id) })
	g.mu.Lock()
	g.timers[id] = timer
	g.mu.Unlock()
}

// stopTimer removes and stops the session timer. It reports whether a timer
// was still registered, which doubles as the only-finalize-once guard.
func (g *GameService) stopTimer(id string) bool {
	g.mu.Lock()
	timer, ok := g.timers[id]
	if ok {
		delete(g.timers, id)
	}
	g.mu.Unlock()
	if ok {
		timer.Stop()
	}
	return ok
}

func (g *GameService) tick(id string) {
	session, ok := g.sessions.Get(id)
	if !ok {
		g.stopTimer(id)
		return
	}
	session.Tick()
	if session.Terminal() {
		g.finalize(id, session)
	}
}

func (g *GameService) advance(id string) {
	session, ok := g.sessions.Get(id)
	if !ok {
		return
	}
	if session.Advance() {
		g.finalize(id, session)
	}
}

// finalize stops the countdown and archives the report. Both terminal paths
// (question quota and timer expiry) land here; the timer registration acts
// as the idempotence guard so the second caller is a no-op.
func (g *GameService) finalize(id string, session *Session) {
	if !g.stopTimer(id) {
		return
	}
	if g.archive == nil {
		return
	}
	report, err := session.Report()
	if err != nil {
		return
	}
	if err := g.archive.Save(context.Background(), id, report); err != nil {
		log.Printf("archive report %s: %v", id, err)
	}
}
