package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"plabroom/internal/app"
	"plabroom/internal/model"
)

type feedbackFixture struct {
	svc       *app.FeedbackService
	publisher *fakePublisher
	code      string
}

func newFeedbackFixture(t *testing.T) *feedbackFixture {
	t.Helper()
	ctx := context.Background()

	sf := newSessionFixture(t)
	code := sf.prepared(t)
	require.NoError(t, sf.svc.StartSession(ctx, code, 1))

	publisher := &fakePublisher{}
	return &feedbackFixture{
		svc:       app.NewFeedbackService(sf.sessions, sf.participants, &fakeFeedbackStore{}, publisher),
		publisher: publisher,
		code:      code,
	}
}

type fakeFeedbackStore struct {
	rows []model.Feedback
}

func (f *fakeFeedbackStore) ListBySession(sessionID uint) ([]model.Feedback, error) {
	var out []model.Feedback
	for _, r := range f.rows {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFeedbackStore) ListBySessionAndRound(sessionID uint, round int) ([]model.Feedback, error) {
	var out []model.Feedback
	for _, r := range f.rows {
		if r.SessionID == sessionID && r.Round == round {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestSubmitFeedback(t *testing.T) {
	f := newFeedbackFixture(t)

	fb, err := f.svc.SubmitFeedback(context.Background(), app.SubmitFeedbackInput{
		Code:          f.code,
		AuthorID:      2,
		RecipientID:   1,
		DataGathering: 3,
		Management:    2,
		Interpersonal: 4,
		Comment:       "good safety netting",
	})
	require.NoError(t, err)
	require.Equal(t, 1, fb.Round)
	require.NotZero(t, fb.CaseID)
	require.NotEmpty(t, fb.ClientKey)

	require.Len(t, f.publisher.published, 1)
	require.Equal(t, "good safety netting", f.publisher.published[0].Comment)
}

func TestSubmitFeedbackScoreBounds(t *testing.T) {
	f := newFeedbackFixture(t)

	_, err := f.svc.SubmitFeedback(context.Background(), app.SubmitFeedbackInput{
		Code: f.code, AuthorID: 2, RecipientID: 1,
		DataGathering: 5, Management: 2, Interpersonal: 2,
	})
	require.ErrorIs(t, err, app.ErrScoreOutOfRange)

	_, err = f.svc.SubmitFeedback(context.Background(), app.SubmitFeedbackInput{
		Code: f.code, AuthorID: 2, RecipientID: 1,
		DataGathering: 2, Management: -1, Interpersonal: 2,
	})
	require.ErrorIs(t, err, app.ErrScoreOutOfRange)
}

func TestSubmitFeedbackSelf(t *testing.T) {
	f := newFeedbackFixture(t)

	_, err := f.svc.SubmitFeedback(context.Background(), app.SubmitFeedbackInput{
		Code: f.code, AuthorID: 1, RecipientID: 1,
		DataGathering: 2, Management: 2, Interpersonal: 2,
	})
	require.ErrorIs(t, err, app.ErrSelfFeedback)
}

func TestSubmitFeedbackNonParticipant(t *testing.T) {
	f := newFeedbackFixture(t)

	_, err := f.svc.SubmitFeedback(context.Background(), app.SubmitFeedbackInput{
		Code: f.code, AuthorID: 99, RecipientID: 1,
		DataGathering: 2, Management: 2, Interpersonal: 2,
	})
	require.ErrorIs(t, err, app.ErrNotParticipant)
}

func TestSubmitFeedbackKeepsClientKey(t *testing.T) {
	f := newFeedbackFixture(t)

	fb, err := f.svc.SubmitFeedback(context.Background(), app.SubmitFeedbackInput{
		Code: f.code, AuthorID: 2, RecipientID: 1,
		DataGathering: 2, Management: 2, Interpersonal: 2,
		ClientKey: "retry-key-1",
	})
	require.NoError(t, err)
	require.Equal(t, "retry-key-1", fb.ClientKey)
}

func TestListFeedbackRequiresParticipant(t *testing.T) {
	f := newFeedbackFixture(t)

	_, err := f.svc.ListFeedback(f.code, 99, 0)
	require.ErrorIs(t, err, app.ErrNotParticipant)

	rows, err := f.svc.ListFeedback(f.code, 1, 0)
	require.NoError(t, err)
	require.Empty(t, rows)
}
