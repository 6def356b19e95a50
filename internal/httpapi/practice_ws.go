package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vocalis-app/vocalis/internal/content"
	"github.com/vocalis-app/vocalis/internal/session"
	"github.com/vocalis-app/vocalis/internal/store"
	"github.com/vocalis-app/vocalis/internal/timeattack"
)

// clientMessage is the envelope for everything a practice client sends.
type clientMessage struct {
	Type    string `json:"type"`
	LevelID string `json:"levelId,omitempty"`

	Transcript string  `json:"transcript,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// serverMessage is the envelope for everything the gateway sends back.
type serverMessage struct {
	Type string `json:"type"`

	Word     *content.Prompt           `json:"word,omitempty"`
	Position int                       `json:"position,omitempty"`
	Total    int                       `json:"total,omitempty"`
	Outcome  *session.Outcome          `json:"outcome,omitempty"`
	Hint     string                    `json:"hint,omitempty"`
	Attempt  *timeattack.AttemptResult `json:"attempt,omitempty"`
	Result   *timeattack.Result        `json:"result,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

// gatewayState is the per-connection state: at most one practice session or
// Time-Attack round is live at a time.
type gatewayState struct {
	machine *session.Machine
	round   *timeattack.Round
}

// handlePracticeSocket upgrades to a WebSocket and drives practice sessions
// and Time-Attack rounds server-side. The connection is single-threaded by
// construction: one message is handled at a time, matching the one-word-in-
// flight session model.
func (s *Server) handlePracticeSocket(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection lost")

	ctx := r.Context()
	s.metrics.ActivePracticeSessions.Add(ctx, 1)
	defer s.metrics.ActivePracticeSessions.Add(ctx, -1)

	state := &gatewayState{}
	defer func() {
		// Disconnecting mid-round abandons it without submitting a score.
		if state.round != nil {
			state.round.Abandon()
		}
	}()

	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				slog.Debug("practice socket read ended", "error", err)
			}
			return
		}

		reply := s.dispatchPracticeMessage(ctx, sess.LearnerID, state, msg)
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			return
		}
	}
}

func (s *Server) dispatchPracticeMessage(ctx context.Context, learnerID string, state *gatewayState, msg clientMessage) serverMessage {
	switch msg.Type {
	case "start_level":
		return s.startLevel(ctx, learnerID, state, msg.LevelID)
	case "start_deck":
		return s.startDeck(ctx, learnerID, state)
	case "attempt":
		return state.submitAttempt(ctx, msg)
	case "attempt_failed":
		if state.machine == nil {
			return errorMessage("no session in progress")
		}
		state.machine.SubmitFailure()
		return serverMessage{Type: "ack"}
	case "hint":
		return state.hint()
	case "skip":
		return state.skip()
	case "start_time_attack":
		return s.startTimeAttack(ctx, learnerID, state, msg.LevelID)
	case "time_attack_attempt":
		if state.round == nil {
			return errorMessage("no round in progress")
		}
		att, err := state.round.Submit(ctx, msg.Transcript, msg.Confidence, time.Now())
		if err != nil {
			return errorMessage(err.Error())
		}
		return serverMessage{Type: "time_attack_attempt", Attempt: &att}
	case "finish_time_attack":
		return s.finishTimeAttack(ctx, learnerID, state)
	default:
		return errorMessage("unknown message type " + msg.Type)
	}
}

// recorderFor persists attempts through the progress aggregator, which also
// feeds the achievement dispatcher.
func (s *Server) recorderFor(learnerID string) session.RecorderFunc {
	return func(ctx context.Context, att session.Attempt) error {
		_, err := s.progress.Record(ctx, learnerID, att.Word, att.Accuracy, att.Mastered, att.Level)
		if err == nil {
			s.metrics.RecordAttempt(ctx, att.Level, att.Mastered)
		}
		return err
	}
}

func (s *Server) startLevel(ctx context.Context, learnerID string, state *gatewayState, levelID string) serverMessage {
	level, err := s.store.Level(ctx, levelID)
	if errors.Is(err, store.ErrNotFound) {
		return errorMessage("level not found")
	}
	if err != nil {
		return errorMessage("server error")
	}
	return state.beginSession(level, s.recorderFor(learnerID), s.sessionOpts)
}

// startDeck runs a session over the learner's unmastered words from every
// theme, recorded under the synthetic practice-deck level.
func (s *Server) startDeck(ctx context.Context, learnerID string, state *gatewayState) serverMessage {
	words, err := s.progress.Deck(ctx, learnerID)
	if err != nil {
		return errorMessage("server error")
	}
	if len(words) == 0 {
		return errorMessage("no words to practice")
	}

	prompts := make([]content.Prompt, 0, len(words))
	for _, w := range words {
		prompts = append(prompts, content.Prompt{Text: w})
	}
	level := &content.Level{
		ID:    content.PracticeDeckID,
		Name:  "Personalized Practice",
		Color: "#00c896",
		Words: prompts,
	}
	return state.beginSession(level, s.recorderFor(learnerID), s.sessionOpts)
}

func (st *gatewayState) beginSession(level *content.Level, rec session.Recorder, opts []session.Option) serverMessage {
	m, err := session.New(level, rec, opts...)
	if err != nil {
		return errorMessage("level has no words")
	}
	st.machine = m
	st.round = nil

	word := m.Current()
	pos, total := m.Progress()
	return serverMessage{Type: "session_started", Word: &word, Position: pos, Total: total}
}

func (st *gatewayState) submitAttempt(ctx context.Context, msg clientMessage) serverMessage {
	if st.machine == nil {
		return errorMessage("no session in progress")
	}
	if err := st.machine.BeginCapture(); err != nil {
		return errorMessage(err.Error())
	}
	out, err := st.machine.Submit(ctx, msg.Transcript, msg.Confidence)
	if err != nil {
		return errorMessage(err.Error())
	}
	pos, total := st.machine.Progress()
	return serverMessage{Type: "outcome", Outcome: &out, Position: pos, Total: total}
}

func (st *gatewayState) hint() serverMessage {
	if st.machine == nil {
		return errorMessage("no session in progress")
	}
	text, err := st.machine.Hint()
	if err != nil {
		return errorMessage(err.Error())
	}
	return serverMessage{Type: "hint", Hint: text}
}

func (st *gatewayState) skip() serverMessage {
	if st.machine == nil {
		return errorMessage("no session in progress")
	}
	next, err := st.machine.Skip()
	if err != nil {
		return errorMessage(err.Error())
	}
	pos, total := st.machine.Progress()
	if next == nil {
		return serverMessage{Type: "level_complete", Position: pos, Total: total}
	}
	return serverMessage{Type: "word", Word: next, Position: pos, Total: total}
}

// startTimeAttack builds the word pool from the named level, or from every
// level when none is given, and starts the countdown.
func (s *Server) startTimeAttack(ctx context.Context, learnerID string, state *gatewayState, levelID string) serverMessage {
	pool, err := s.timeAttackPool(ctx, levelID)
	if err != nil {
		return errorMessage(err.Error())
	}

	round, err := timeattack.NewRound(pool, s.recorderFor(learnerID), s.roundCfg)
	if err != nil {
		return errorMessage("no words available for time attack")
	}
	state.round = round
	state.machine = nil

	first := round.Start(time.Now())
	return serverMessage{
		Type: "time_attack_started",
		Word: &content.Prompt{Text: first},
	}
}

func (s *Server) timeAttackPool(ctx context.Context, levelID string) ([]string, error) {
	if levelID != "" {
		level, err := s.store.Level(ctx, levelID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.New("level not found")
		}
		if err != nil {
			return nil, errors.New("server error")
		}
		return promptTexts(level.Words), nil
	}

	levels, err := s.store.Levels(ctx)
	if err != nil {
		return nil, errors.New("server error")
	}
	var pool []string
	for _, l := range levels {
		pool = append(pool, promptTexts(l.Words)...)
	}
	return pool, nil
}

func promptTexts(prompts []content.Prompt) []string {
	words := make([]string, 0, len(prompts))
	for _, p := range prompts {
		words = append(words, p.Text)
	}
	return words
}

func (s *Server) finishTimeAttack(ctx context.Context, learnerID string, state *gatewayState) serverMessage {
	if state.round == nil {
		return errorMessage("no round in progress")
	}

	result, err := state.round.Finish(time.Now())
	if err != nil {
		return errorMessage(err.Error())
	}
	state.round = nil

	// The finished score always goes on the board, win or lose.
	if _, err := s.board.Submit(ctx, learnerID, result.Score, result.MaxCombo); err != nil {
		slog.Error("score submission after round failed", "learner_id", learnerID, "error", err)
	} else {
		s.metrics.RecordScoreSubmission(ctx)
	}

	return serverMessage{Type: "time_attack_finished", Result: &result}
}

func errorMessage(msg string) serverMessage {
	return serverMessage{Type: "error", Error: msg}
}
