// Package content defines the practice content model: levels and the prompts
// they contain. A Prompt is a two-variant tagged union — a plain spoken word,
// or a word paired with an image reference for picture rounds. Both variants
// carry the text the learner is expected to say; the image is a presentation
// hint only and never participates in scoring.
package content

import (
	"encoding/json"
	"fmt"
)

// Well-known level identifiers.
const (
	// PictureRoundID is the seeded picture-based level.
	PictureRoundID = "PICTURE_ROUND_1"

	// TimeAttackID marks progress written during a Time-Attack round. It is
	// not a real level and is excluded from themed progress views.
	TimeAttackID = "TIME_ATTACK"

	// PracticeDeckID is the virtual level backing the personalised review
	// mode built from a learner's unmastered words.
	PracticeDeckID = "PRACTICE_DECK"

	// LegacyUnthemedID is the sentinel written by early clients that had no
	// level identity. Excluded from themed progress views.
	LegacyUnthemedID = "1"
)

// Prompt is one practice item within a level. Text is always set; Image is
// set only for picture prompts.
type Prompt struct {
	Text  string
	Image string
}

// IsPicture reports whether the prompt carries an image reference.
func (p Prompt) IsPicture() bool { return p.Image != "" }

// promptJSON is the object form of a prompt on the wire.
type promptJSON struct {
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// MarshalJSON encodes plain prompts as a bare string and picture prompts as
// an object, matching the persisted level format.
func (p Prompt) MarshalJSON() ([]byte, error) {
	if !p.IsPicture() {
		return json.Marshal(p.Text)
	}
	return json.Marshal(promptJSON{Text: p.Text, Image: p.Image})
}

// UnmarshalJSON accepts either a bare string or a {text, image} object.
// Both forms decode to the same Prompt type so the engine never has to
// shape-sniff at scoring time.
func (p *Prompt) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("content: decode plain prompt: %w", err)
		}
		*p = Prompt{Text: text}
		return nil
	}
	var obj promptJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("content: decode picture prompt: %w", err)
	}
	if obj.Text == "" {
		return fmt.Errorf("content: picture prompt is missing text")
	}
	*p = Prompt{Text: obj.Text, Image: obj.Image}
	return nil
}

// Level is an ordered sequence of prompts with display metadata and an
// optional pointer to the next level in the progression chain. Levels are
// produced by content seeding and are read-only to the engine.
type Level struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Color         string   `json:"color,omitempty"`
	Words         []Prompt `json:"words"`
	NextLevelID   string   `json:"nextLevelId,omitempty"`
	NextLevelName string   `json:"nextLevelName,omitempty"`
}

// Summary is a level without its word list, for listing endpoints.
type Summary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Color         string `json:"color,omitempty"`
	NextLevelID   string `json:"nextLevelId,omitempty"`
	NextLevelName string `json:"nextLevelName,omitempty"`
}

// Summarize strips the word list from l.
func (l Level) Summarize() Summary {
	return Summary{
		ID:            l.ID,
		Name:          l.Name,
		Description:   l.Description,
		Color:         l.Color,
		NextLevelID:   l.NextLevelID,
		NextLevelName: l.NextLevelName,
	}
}
