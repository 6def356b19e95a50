package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vocalis-app/vocalis/internal/content"
	"github.com/vocalis-app/vocalis/internal/store"
)

func TestCreateLearner_DuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateLearner(ctx, &store.Learner{ID: "u1", Email: "Ada@Example.com"}); err != nil {
		t.Fatalf("CreateLearner: %v", err)
	}
	err := s.CreateLearner(ctx, &store.Learner{ID: "u2", Email: "ada@example.com"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}

	// Lookup is case-insensitive too.
	l, err := s.LearnerByEmail(ctx, "ADA@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("LearnerByEmail: %v", err)
	}
	if l.ID != "u1" {
		t.Errorf("learner = %+v", l)
	}
}

func TestLearnerByID_NotFound(t *testing.T) {
	s := New()
	if _, err := s.LearnerByID(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsertProgress_OverwritesByWord(t *testing.T) {
	s := New()
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	if _, err := s.UpsertProgress(ctx, store.ProgressRecord{LearnerID: "u1", Word: "CAT", Accuracy: 40}); err != nil {
		t.Fatalf("UpsertProgress: %v", err)
	}
	now = now.Add(time.Hour)
	if _, err := s.UpsertProgress(ctx, store.ProgressRecord{LearnerID: "u1", Word: "CAT", Accuracy: 95, Mastered: true}); err != nil {
		t.Fatalf("UpsertProgress: %v", err)
	}
	now = now.Add(time.Hour)
	if _, err := s.UpsertProgress(ctx, store.ProgressRecord{LearnerID: "u1", Word: "DOG", Accuracy: 50}); err != nil {
		t.Fatalf("UpsertProgress: %v", err)
	}

	records, err := s.ProgressByLearner(ctx, "u1")
	if err != nil {
		t.Fatalf("ProgressByLearner: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// Newest first.
	if records[0].Word != "DOG" || records[1].Word != "CAT" {
		t.Errorf("order = %s, %s", records[0].Word, records[1].Word)
	}
	if !records[1].Mastered || records[1].Accuracy != 95 {
		t.Errorf("CAT record not overwritten: %+v", records[1])
	}
}

func TestUnmasteredWords(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.UpsertProgress(ctx, store.ProgressRecord{LearnerID: "u1", Word: "ZEBRA"})
	s.UpsertProgress(ctx, store.ProgressRecord{LearnerID: "u1", Word: "APPLE"})
	s.UpsertProgress(ctx, store.ProgressRecord{LearnerID: "u1", Word: "CAT", Mastered: true})

	words, err := s.UnmasteredWords(ctx, "u1")
	if err != nil {
		t.Fatalf("UnmasteredWords: %v", err)
	}
	// Sorted, mastered words excluded.
	if len(words) != 2 || words[0] != "APPLE" || words[1] != "ZEBRA" {
		t.Errorf("words = %v", words)
	}
}

func TestInsertGrant_Duplicate(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.InsertGrant(ctx, "u1", "MASTER_1"); err != nil {
		t.Fatalf("InsertGrant: %v", err)
	}
	if err := s.InsertGrant(ctx, "u1", "MASTER_1"); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
	// The same achievement for another learner is fine.
	if err := s.InsertGrant(ctx, "u2", "MASTER_1"); err != nil {
		t.Errorf("InsertGrant for u2: %v", err)
	}
}

func TestTopScores_TieKeepsInsertionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.CreateLearner(ctx, &store.Learner{ID: "u1", Name: "Ada", Email: "ada@example.com"})
	s.CreateLearner(ctx, &store.Learner{ID: "u2", Name: "Bob", Email: "bob@example.com"})

	s.InsertScore(ctx, &store.ScoreSubmission{ID: "s1", LearnerID: "u1", Score: 500})
	s.InsertScore(ctx, &store.ScoreSubmission{ID: "s2", LearnerID: "u2", Score: 500})
	s.InsertScore(ctx, &store.ScoreSubmission{ID: "s3", LearnerID: "u2", Score: 700})

	top, err := s.TopScores(ctx, 10)
	if err != nil {
		t.Fatalf("TopScores: %v", err)
	}
	if len(top) != 3 || top[0].Score != 700 {
		t.Fatalf("top = %+v", top)
	}
	if top[1].ID != "s1" || top[2].ID != "s2" {
		t.Errorf("tie order = %s, %s; want s1, s2", top[1].ID, top[2].ID)
	}
	if top[0].LearnerName != "Bob" {
		t.Errorf("annotation = %+v", top[0])
	}
}

func TestUpsertLevel_InsertionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.UpsertLevel(ctx, &content.Level{ID: "B", Name: "second"})
	s.UpsertLevel(ctx, &content.Level{ID: "A", Name: "first"})
	s.UpsertLevel(ctx, &content.Level{ID: "B", Name: "second edited"})

	levels, err := s.Levels(ctx)
	if err != nil {
		t.Fatalf("Levels: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("got %d levels, want 2", len(levels))
	}
	if levels[0].ID != "B" || levels[1].ID != "A" {
		t.Errorf("order = %s, %s", levels[0].ID, levels[1].ID)
	}
	if levels[0].Name != "second edited" {
		t.Errorf("upsert did not replace: %+v", levels[0])
	}
}
