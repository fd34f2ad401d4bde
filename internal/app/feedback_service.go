package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"plabroom/internal/model"
)

var (
	ErrScoreOutOfRange = errors.New("score out of range")
	ErrFeedbackEnqueue = errors.New("feedback enqueue failed")
	ErrSelfFeedback    = errors.New("cannot submit feedback about yourself")
)

// AsyncFeedbackPublisher hands validated feedback to the persist queue.
type AsyncFeedbackPublisher interface {
	Publish(ctx context.Context, f model.Feedback) error
}

type FeedbackStore interface {
	ListBySession(sessionID uint) ([]model.Feedback, error)
	ListBySessionAndRound(sessionID uint, round int) ([]model.Feedback, error)
}

type FeedbackService struct {
	sessions     SessionStore
	participants ParticipantStore
	feedbacks    FeedbackStore
	publisher    AsyncFeedbackPublisher
}

func NewFeedbackService(
	sessions SessionStore,
	participants ParticipantStore,
	feedbacks FeedbackStore,
	publisher AsyncFeedbackPublisher,
) *FeedbackService {
	return &FeedbackService{
		sessions:     sessions,
		participants: participants,
		feedbacks:    feedbacks,
		publisher:    publisher,
	}
}

type SubmitFeedbackInput struct {
	Code          string
	AuthorID      uint
	RecipientID   uint
	DataGathering int
	Management    int
	Interpersonal int
	Comment       string
	ClientKey     string
}

// SubmitFeedback validates the submission against the session's current
// case and round, then enqueues it for asynchronous persistence. The
// returned row carries the client key callers can use to correlate.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, input SubmitFeedbackInput) (*model.Feedback, error) {
	if input.AuthorID == 0 || input.RecipientID == 0 || input.Code == "" {
		return nil, ErrInvalidInput
	}
	if input.AuthorID == input.RecipientID {
		return nil, ErrSelfFeedback
	}
	for _, score := range []int{input.DataGathering, input.Management, input.Interpersonal} {
		if score < model.FeedbackScoreMin || score > model.FeedbackScoreMax {
			return nil, ErrScoreOutOfRange
		}
	}

	session, err := s.sessions.GetByCode(input.Code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.SelectedCaseID == 0 || session.Round == 0 {
		return nil, ErrNoCaseSelected
	}

	for _, userID := range []uint{input.AuthorID, input.RecipientID} {
		participant, err := s.participants.GetBySessionAndUser(session.ID, userID)
		if err != nil {
			return nil, err
		}
		if participant == nil {
			return nil, ErrNotParticipant
		}
	}

	clientKey := strings.TrimSpace(input.ClientKey)
	if clientKey == "" {
		clientKey = uuid.NewString()
	}

	f := model.Feedback{
		SessionID:     session.ID,
		CaseID:        session.SelectedCaseID,
		Round:         session.Round,
		AuthorID:      input.AuthorID,
		RecipientID:   input.RecipientID,
		DataGathering: input.DataGathering,
		Management:    input.Management,
		Interpersonal: input.Interpersonal,
		Comment:       strings.TrimSpace(input.Comment),
		ClientKey:     clientKey,
		CreatedAt:     time.Now(),
	}

	if s.publisher == nil {
		return nil, ErrFeedbackEnqueue
	}
	if err := s.publisher.Publish(ctx, f); err != nil {
		return nil, ErrFeedbackEnqueue
	}
	return &f, nil
}

// ListFeedback returns persisted feedback for a session, optionally
// restricted to one round (round 0 means all rounds). Only participants
// may read a session's feedback.
func (s *FeedbackService) ListFeedback(code string, userID uint, round int) ([]model.Feedback, error) {
	if code == "" || userID == 0 {
		return nil, ErrInvalidInput
	}

	session, err := s.sessions.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	participant, err := s.participants.GetBySessionAndUser(session.ID, userID)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, ErrNotParticipant
	}

	if round > 0 {
		return s.feedbacks.ListBySessionAndRound(session.ID, round)
	}
	return s.feedbacks.ListBySession(session.ID)
}
