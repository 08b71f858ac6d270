package domain

// Problem is a single multiplication question with factors in [1,9].
type Problem struct {
	A      int `json:"a"`
	B      int `json:"b"`
	Answer int `json:"answer"`
}

// AnswerKind distinguishes how a question is answered.
type AnswerKind string

const (
	// AnswerMultiple means the player picks from four options.
	AnswerMultiple AnswerKind = "multiple"
	// AnswerShort means the player types the product.
	AnswerShort AnswerKind = "short"
)

// AnswerSubmission models the scoring signal from clients.
type AnswerSubmission struct {
	Value int
	Kind  AnswerKind
}

// FeedbackKind categorizes the outcome shown after each answer.
type FeedbackKind string

const (
	FeedbackCorrect       FeedbackKind = "correct"
	FeedbackStreakBonus   FeedbackKind = "streakBonus"
	FeedbackWrong         FeedbackKind = "wrong"
	FeedbackStreakPenalty FeedbackKind = "streakPenalty"
)

// AnswerResult summarizes the outcome of a submission.
type AnswerResult struct {
	Correct        bool         `json:"correct"`
	ScoreDelta     int          `json:"scoreDelta"`
	Feedback       FeedbackKind `json:"feedback"`
	BonusTriggered bool         `json:"bonusTriggered"`
	Message        string       `json:"message"`
	CorrectAnswer  int          `json:"correctAnswer"`
	TotalScore     int          `json:"totalScore"`
}

// QuestionRecord is one append-only entry of the per-session analytics log.
type QuestionRecord struct {
	Index            int        `json:"index"`
	A                int        `json:"a"`
	B                int        `json:"b"`
	Kind             AnswerKind `json:"kind"`
	CorrectAnswer    int        `json:"correctAnswer"`
	GivenAnswer      int        `json:"givenAnswer"`
	Correct          bool       `json:"correct"`
	TimeSpentSeconds float64    `json:"timeSpentSeconds"`
}

// QuestionView is the client-facing shape of the active question.
// The product is withheld; options are present only for multiple-choice turns.
type QuestionView struct {
	Index   int        `json:"index"`
	Total   int        `json:"total"`
	A       int        `json:"a"`
	B       int        `json:"b"`
	Kind    AnswerKind `json:"kind"`
	Options []int      `json:"options,omitempty"`
}

// TimerEvent is emitted once per countdown second.
type TimerEvent struct {
	SecondsLeft int    `json:"secondsLeft"`
	Display     string `json:"display"` // mm:ss
	Warning     bool   `json:"warning"` // under one minute
	Expired     bool   `json:"expired"`
}

// Report is the post-session performance summary.
type Report struct {
	PlayerName           string  `json:"playerName"`
	Score                int     `json:"score"`
	TotalQuestions       int     `json:"totalQuestions"`
	TotalAnswered        int     `json:"totalAnswered"`
	CorrectCount         int     `json:"correctCount"`
	WrongCount           int     `json:"wrongCount"`
	Accuracy             int     `json:"accuracy"` // percent, rounded
	BestCorrectStreak    int     `json:"bestCorrectStreak"`
	BestWrongStreak      int     `json:"bestWrongStreak"`
	TimeExpired          bool    `json:"timeExpired"`
	TotalTimeUsedSeconds int     `json:"totalTimeUsedSeconds"`
	AvgTimePerQuestion   float64 `json:"avgTimePerQuestion"`
	Pacing               string  `json:"pacing"`
	WeakFactors          []int   `json:"weakFactors"`
	StrongFactors        []int   `json:"strongFactors"`
	Strength             string  `json:"strength"`
	Growth               string  `json:"growth,omitempty"`
	NextStep             string  `json:"nextStep"`
}

// SessionEventKind labels broadcast events for subscribers.
type SessionEventKind string

const (
	EventQuestion SessionEventKind = "question"
	EventTimer    SessionEventKind = "timer"
	EventReport   SessionEventKind = "report"
)

// SessionEvent is pushed to subscribers as the session progresses.
type SessionEvent struct {
	Kind     SessionEventKind `json:"kind"`
	Question *QuestionView    `json:"question,omitempty"`
	Timer    *TimerEvent      `json:"timer,omitempty"`
	Report   *Report          `json:"report,omitempty"`
}
