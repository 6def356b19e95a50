package content

import (
	"context"
	"log/slog"
)

// LevelWriter is the subset of the level store needed by seeding.
type LevelWriter interface {
	Level(ctx context.Context, id string) (*Level, error)
	UpsertLevel(ctx context.Context, level *Level) error
}

// pictureRoundWords is the fixed word set for the seeded picture round.
// Image references point at the bundled static assets.
var pictureRoundWords = []Prompt{
	{Text: "CAT", Image: "/assets/pictures/cat.jpg"},
	{Text: "DOG", Image: "/assets/pictures/dog.jpg"},
	{Text: "CAR", Image: "/assets/pictures/car.jpg"},
	{Text: "TREE", Image: "/assets/pictures/tree.jpg"},
	{Text: "FISH", Image: "/assets/pictures/fish.jpg"},
}

// SeedPictureRound ensures the picture-based level exists with the current
// word set. Safe to call on every startup: an existing level has its words
// refreshed in place, a missing one is created.
func SeedPictureRound(ctx context.Context, store LevelWriter) error {
	level := &Level{
		ID:          PictureRoundID,
		Name:        "🖼️ Picture Round 🖼️",
		Description: "Say what you see! (No text!)",
		Color:       "#3498db",
		Words:       pictureRoundWords,
	}

	existing, err := store.Level(ctx, PictureRoundID)
	if err == nil && existing != nil {
		existing.Words = pictureRoundWords
		if err := store.UpsertLevel(ctx, existing); err != nil {
			return err
		}
		slog.Debug("picture round words refreshed", "level_id", PictureRoundID)
		return nil
	}

	if err := store.UpsertLevel(ctx, level); err != nil {
		return err
	}
	slog.Info("picture round level created", "level_id", PictureRoundID, "words", len(level.Words))
	return nil
}
