// Package achievement evaluates the achievement rule table against persisted
// learner state and records grants. Granting is idempotent: the unique
// constraint on (learner, achievement) is the correctness boundary, and a
// duplicate insert is the expected outcome of re-evaluation, not an error.
package achievement

// Definition is a static catalog entry. Definitions are not persisted; only
// grants are.
type Definition struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog IDs. Grant rows reference these, so they are part of the stored
// data model and must stay stable.
const (
	FirstMastery  = "MASTER_1"
	WordWizard    = "MASTER_10"
	HeatingUp     = "STREAK_3"
	Contender     = "SCORE_TIME_ATTACK"
	TimeAttackPro = "SCORE_1000"
	VisualLearner = "COMPLETE_PICTURE_ROUND"
)

// Catalog returns the full achievement catalog keyed by ID.
func Catalog() map[string]Definition {
	return map[string]Definition{
		FirstMastery:  {ID: FirstMastery, Name: "First Steps", Description: "Master your first word."},
		WordWizard:    {ID: WordWizard, Name: "Word Wizard", Description: "Master 10 different words."},
		HeatingUp:     {ID: HeatingUp, Name: "Heating Up", Description: "Maintain a 3-day streak."},
		Contender:     {ID: Contender, Name: "Contender", Description: "Post your first Time Attack score."},
		TimeAttackPro: {ID: TimeAttackPro, Name: "Time Attack Pro", Description: "Score over 1,000 in Time Attack."},
		VisualLearner: {ID: VisualLearner, Name: "Visual Learner", Description: "Master all words in the Picture Round."},
	}
}
