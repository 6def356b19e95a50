package content

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// fakeLevelWriter is a map-backed LevelWriter.
type fakeLevelWriter struct {
	levels map[string]*Level
}

func newFakeLevelWriter() *fakeLevelWriter {
	return &fakeLevelWriter{levels: make(map[string]*Level)}
}

func (f *fakeLevelWriter) Level(_ context.Context, id string) (*Level, error) {
	l, ok := f.levels[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *l
	cp.Words = append([]Prompt(nil), l.Words...)
	return &cp, nil
}

func (f *fakeLevelWriter) UpsertLevel(_ context.Context, level *Level) error {
	cp := *level
	cp.Words = append([]Prompt(nil), level.Words...)
	f.levels[level.ID] = &cp
	return nil
}

func TestPrompt_UnmarshalBothForms(t *testing.T) {
	var level Level
	raw := `{"id":"L1","name":"Mixed","words":["CAT",{"text":"DOG","image":"/assets/pictures/dog.jpg"}]}`
	if err := json.Unmarshal([]byte(raw), &level); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(level.Words) != 2 {
		t.Fatalf("got %d words, want 2", len(level.Words))
	}

	plain := level.Words[0]
	if plain.Text != "CAT" || plain.IsPicture() {
		t.Errorf("plain prompt = %+v", plain)
	}
	pic := level.Words[1]
	if pic.Text != "DOG" || pic.Image != "/assets/pictures/dog.jpg" || !pic.IsPicture() {
		t.Errorf("picture prompt = %+v", pic)
	}
}

func TestPrompt_MarshalPreservesForm(t *testing.T) {
	got, err := json.Marshal([]Prompt{
		{Text: "CAT"},
		{Text: "DOG", Image: "/assets/pictures/dog.jpg"},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `["CAT",{"text":"DOG","image":"/assets/pictures/dog.jpg"}]`
	if string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestPrompt_UnmarshalRejectsMissingText(t *testing.T) {
	var p Prompt
	if err := json.Unmarshal([]byte(`{"image":"/x.jpg"}`), &p); err == nil {
		t.Error("picture prompt without text accepted")
	}
}

func TestSummarize(t *testing.T) {
	l := Level{
		ID:          "ANIMALS_1",
		Name:        "Animals",
		Color:       "#ff0000",
		Words:       []Prompt{{Text: "CAT"}},
		NextLevelID: "ANIMALS_2",
	}
	s := l.Summarize()
	if s.ID != l.ID || s.Name != l.Name || s.Color != l.Color || s.NextLevelID != l.NextLevelID {
		t.Errorf("summary = %+v", s)
	}
}

func TestSeedPictureRound(t *testing.T) {
	st := newFakeLevelWriter()
	ctx := context.Background()

	if err := SeedPictureRound(ctx, st); err != nil {
		t.Fatalf("SeedPictureRound: %v", err)
	}

	level, err := st.Level(ctx, PictureRoundID)
	if err != nil {
		t.Fatalf("Level: %v", err)
	}
	if level.Name != "🖼️ Picture Round 🖼️" || level.Color != "#3498db" {
		t.Errorf("level metadata = %+v", level)
	}
	if len(level.Words) != 5 {
		t.Fatalf("got %d words, want 5", len(level.Words))
	}
	for _, w := range level.Words {
		if !w.IsPicture() {
			t.Errorf("word %q has no image", w.Text)
		}
	}

	// Re-seeding refreshes words and keeps edited metadata.
	level.Description = "edited"
	level.Words = level.Words[:1]
	if err := st.UpsertLevel(ctx, level); err != nil {
		t.Fatalf("UpsertLevel: %v", err)
	}
	if err := SeedPictureRound(ctx, st); err != nil {
		t.Fatalf("second SeedPictureRound: %v", err)
	}

	level, err = st.Level(ctx, PictureRoundID)
	if err != nil {
		t.Fatalf("Level: %v", err)
	}
	if len(level.Words) != 5 {
		t.Errorf("got %d words after re-seed, want 5", len(level.Words))
	}
	if level.Description != "edited" {
		t.Errorf("re-seed clobbered metadata: %q", level.Description)
	}
}
