package domain

// PlayerQnA is one entry of the answer log: a question posed to a player,
// later filled in with that player's answer. Entries are appended when a
// question is issued and mutated in place exactly once when answered; they
// are never removed.
type PlayerQnA struct {
	PlayerID              string  `json:"playerId"`
	QuestionID            string  `json:"questionId"`
	PlayerAnswerID        string  `json:"playerAnswerId,omitempty"`
	PlayerAnswerInSeconds float64 `json:"playerAnswerInSeconds,omitempty"`
	AnswerCorrect         *bool   `json:"answerCorrect,omitempty"`
	IsReported            bool    `json:"isReported,omitempty"`
}

// Answered reports whether the player has answered this question yet.
func (q PlayerQnA) Answered() bool {
	return q.AnswerCorrect != nil
}

// Correct reports whether the recorded answer was correct. Unanswered
// entries are not correct.
func (q PlayerQnA) Correct() bool {
	return q.AnswerCorrect != nil && *q.AnswerCorrect
}

// Stat is a player's derived snapshot over the answer log: correct answers,
// lost rounds and the floored average answer time in seconds. It is always
// recomputed wholesale, never patched incrementally.
type Stat struct {
	Score      int `json:"score"`
	Round      int `json:"round"`
	AvgAnsTime int `json:"avgAnsTime"`
}
