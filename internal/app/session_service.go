package app

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"plabroom/internal/model"
	"plabroom/internal/pkg/joincode"
	"plabroom/internal/realtime"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session has ended")
	ErrInvalidRole     = errors.New("invalid participant role")
	ErrRoleTaken       = errors.New("role already taken")
	ErrNotParticipant  = errors.New("user is not a participant")
	ErrNotHost         = errors.New("only the host may do this")
	ErrNotAllowed      = errors.New("participant role not allowed to do this")
	ErrWrongPhase      = errors.New("operation not valid in current phase")
	ErrNoCaseSelected  = errors.New("no case selected")
	ErrMissingRoles    = errors.New("session needs an active doctor and patient")
	ErrCategoryEmpty   = errors.New("category has no cases")
	ErrTopicExhausted  = errors.New("all cases in this topic have been used")
	ErrAllCasesUsed    = errors.New("all cases have been used")
	ErrCodeGeneration  = errors.New("could not generate a unique join code")
)

type SessionStore interface {
	Create(session *model.Session) error
	GetByCode(code string) (*model.Session, error)
	ListActiveByHostID(hostID uint) ([]model.Session, error)
	Save(session *model.Session) error
}

type ParticipantStore interface {
	Create(p *model.SessionParticipant) error
	GetBySessionAndUser(sessionID, userID uint) (*model.SessionParticipant, error)
	ListBySessionID(sessionID uint) ([]model.SessionParticipant, error)
	GetActiveByRole(sessionID uint, role string) (*model.SessionParticipant, error)
	Save(p *model.SessionParticipant) error
}

type CaseStore interface {
	GetByID(id uint) (*model.Case, error)
	ListIDsByCategory(categoryID uint) ([]uint, error)
	CountUnused(excluded []uint) (int64, error)
}

// Broadcaster pushes events to the per-session WebSocket topic.
type Broadcaster interface {
	Broadcast(code string, ev realtime.Event)
	CloseTopic(code string)
}

// PhaseScheduler runs the countdown task that fires a phase transition
// at the deadline.
type PhaseScheduler interface {
	Schedule(code string, d time.Duration, fn func())
	Cancel(code string)
}

type StateCache interface {
	GetState(ctx context.Context, code string) (*model.SessionState, bool, error)
	SetState(ctx context.Context, code string, state *model.SessionState) error
	DeleteState(ctx context.Context, code string) error
	MarkDirty(ctx context.Context, code string) error
	IsDirty(ctx context.Context, code string) (bool, error)
}

type SessionConfig struct {
	CodeLength                 int
	DefaultReadingMinutes      int
	DefaultConsultationMinutes int
	DefaultFeedbackMinutes     int
}

// SessionService owns the session lifecycle: join-code allocation, role
// claims, the server-authoritative phase state machine, case selection
// under the used-case exclusion list, and timer scheduling.
type SessionService struct {
	sessions     SessionStore
	participants ParticipantStore
	cases        CaseStore
	hub          Broadcaster
	timers       PhaseScheduler
	stateCache   StateCache
	cfg          SessionConfig

	now func() time.Time
}

func NewSessionService(
	sessions SessionStore,
	participants ParticipantStore,
	cases CaseStore,
	hub Broadcaster,
	timers PhaseScheduler,
	stateCache StateCache,
	cfg SessionConfig,
) *SessionService {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = joincode.DefaultLength
	}
	if cfg.DefaultReadingMinutes <= 0 {
		cfg.DefaultReadingMinutes = 2
	}
	if cfg.DefaultConsultationMinutes <= 0 {
		cfg.DefaultConsultationMinutes = 8
	}
	if cfg.DefaultFeedbackMinutes <= 0 {
		cfg.DefaultFeedbackMinutes = 5
	}
	return &SessionService{
		sessions:     sessions,
		participants: participants,
		cases:        cases,
		hub:          hub,
		timers:       timers,
		stateCache:   stateCache,
		cfg:          cfg,
		now:          time.Now,
	}
}

type CreateSessionInput struct {
	HostID              uint
	HostUsername        string
	Role                string
	TimingType          string
	ReadingMinutes      int
	ConsultationMinutes int
	FeedbackMinutes     int
}

func (s *SessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*model.SessionState, error) {
	if input.HostID == 0 {
		return nil, ErrInvalidInput
	}
	if !model.ValidRole(input.Role) {
		return nil, ErrInvalidRole
	}

	timing := input.TimingType
	if timing == "" {
		timing = model.TimingTimed
	}
	if timing != model.TimingTimed && timing != model.TimingUntimed {
		return nil, ErrInvalidInput
	}

	code, err := s.allocateCode()
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		Code:                code,
		HostID:              input.HostID,
		Phase:               model.PhaseCreated,
		Status:              model.SessionStatusActive,
		TimingType:          timing,
		ReadingMinutes:      positiveOr(input.ReadingMinutes, s.cfg.DefaultReadingMinutes),
		ConsultationMinutes: positiveOr(input.ConsultationMinutes, s.cfg.DefaultConsultationMinutes),
		FeedbackMinutes:     positiveOr(input.FeedbackMinutes, s.cfg.DefaultFeedbackMinutes),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	host := &model.SessionParticipant{
		SessionID: session.ID,
		UserID:    input.HostID,
		Username:  input.HostUsername,
		Role:      input.Role,
		Active:    true,
		JoinedAt:  s.now(),
	}
	if err := s.participants.Create(host); err != nil {
		return nil, err
	}

	return &model.SessionState{
		Session:      *session,
		Participants: []model.SessionParticipant{*host},
		ServerTime:   s.now(),
	}, nil
}

func (s *SessionService) allocateCode() (string, error) {
	for i := 0; i < 5; i++ {
		code, err := joincode.New(s.cfg.CodeLength)
		if err != nil {
			return "", err
		}
		existing, err := s.sessions.GetByCode(code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", ErrCodeGeneration
}

type JoinSessionInput struct {
	Code     string
	UserID   uint
	Username string
	Role     string
}

// JoinSession claims a role in the session. Two users racing for the
// same exclusive role are serialized by the active-holder lookup; the
// loser gets ErrRoleTaken. A returning user's row is reactivated.
func (s *SessionService) JoinSession(ctx context.Context, input JoinSessionInput) (*model.SessionParticipant, error) {
	if input.UserID == 0 || input.Code == "" {
		return nil, ErrInvalidInput
	}
	if !model.ValidRole(input.Role) {
		return nil, ErrInvalidRole
	}

	session, err := s.activeSession(input.Code)
	if err != nil {
		return nil, err
	}

	if model.ExclusiveRole(input.Role) {
		holder, err := s.participants.GetActiveByRole(session.ID, input.Role)
		if err != nil {
			return nil, err
		}
		if holder != nil && holder.UserID != input.UserID {
			return nil, ErrRoleTaken
		}
	}

	participant, err := s.participants.GetBySessionAndUser(session.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if participant != nil {
		participant.Role = input.Role
		participant.Active = true
		if err := s.participants.Save(participant); err != nil {
			return nil, err
		}
	} else {
		participant = &model.SessionParticipant{
			SessionID: session.ID,
			UserID:    input.UserID,
			Username:  input.Username,
			Role:      input.Role,
			Active:    true,
			JoinedAt:  s.now(),
		}
		if err := s.participants.Create(participant); err != nil {
			return nil, err
		}
	}

	s.invalidateState(ctx, session.Code)
	s.broadcastParticipants(session)
	return participant, nil
}

// ListHostedSessions returns the caller's active sessions, newest first.
func (s *SessionService) ListHostedSessions(userID uint) ([]model.Session, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.sessions.ListActiveByHostID(userID)
}

func (s *SessionService) LeaveSession(ctx context.Context, code string, userID uint) error {
	session, err := s.activeSession(code)
	if err != nil {
		return err
	}

	participant, err := s.participants.GetBySessionAndUser(session.ID, userID)
	if err != nil {
		return err
	}
	if participant == nil {
		return ErrNotParticipant
	}

	participant.Active = false
	if err := s.participants.Save(participant); err != nil {
		return err
	}

	s.invalidateState(ctx, session.Code)
	s.broadcastParticipants(session)
	return nil
}

// GetState returns the snapshot clients reconcile their timers against.
// ServerTime is always stamped fresh, even on a cache hit.
func (s *SessionService) GetState(ctx context.Context, code string) (*model.SessionState, error) {
	if s.stateCache != nil {
		dirty, err := s.stateCache.IsDirty(ctx, code)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.stateCache.GetState(ctx, code); cacheErr == nil && hit {
				cached.ServerTime = s.now()
				return cached, nil
			}
		}
	}

	session, err := s.sessions.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	participants, err := s.participants.ListBySessionID(session.ID)
	if err != nil {
		return nil, err
	}

	state := &model.SessionState{
		Session:      *session,
		Participants: participants,
	}
	if session.SelectedCaseID != 0 {
		selected, err := s.cases.GetByID(session.SelectedCaseID)
		if err != nil {
			return nil, err
		}
		state.SelectedCase = selected
	}

	if s.stateCache != nil {
		if dirty, dirtyErr := s.stateCache.IsDirty(ctx, code); dirtyErr == nil && !dirty {
			_ = s.stateCache.SetState(ctx, code, state)
		}
	}

	state.ServerTime = s.now()
	return state, nil
}

type SelectCaseInput struct {
	Code       string
	UserID     uint
	CategoryID uint
}

// SelectCase picks a random unused case from the category and records
// it in the session's exclusion list. Re-selecting while a case is
// already assigned for the current round returns that case instead of
// burning another one. On topic exhaustion the caller is told to offer
// a new topic; when the whole bank is used the session completes.
func (s *SessionService) SelectCase(ctx context.Context, input SelectCaseInput) (*model.Case, error) {
	if input.CategoryID == 0 {
		return nil, ErrInvalidInput
	}

	session, err := s.activeSession(input.Code)
	if err != nil {
		return nil, err
	}
	if err := s.requireHostOrDoctor(session, input.UserID); err != nil {
		return nil, err
	}
	if session.Phase != model.PhaseCreated {
		return nil, ErrWrongPhase
	}

	if session.SelectedCaseID != 0 {
		return s.cases.GetByID(session.SelectedCaseID)
	}

	ids, err := s.cases.ListIDsByCategory(input.CategoryID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrCategoryEmpty
	}

	candidates := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !session.HasUsedCase(id) {
			candidates = append(candidates, id)
		}
	}

	if len(candidates) == 0 {
		remaining, err := s.cases.CountUnused(session.UsedCaseList())
		if err != nil {
			return nil, err
		}
		if remaining == 0 {
			if err := s.completeSession(ctx, session); err != nil {
				return nil, err
			}
			return nil, ErrAllCasesUsed
		}
		return nil, ErrTopicExhausted
	}

	pick := candidates[rand.Intn(len(candidates))]
	selected, err := s.cases.GetByID(pick)
	if err != nil {
		return nil, err
	}
	if selected == nil {
		return nil, ErrInvalidInput
	}

	session.AddUsedCase(pick)
	session.SelectedCaseID = pick
	session.Round++
	if err := s.sessions.Save(session); err != nil {
		return nil, err
	}

	s.invalidateState(ctx, session.Code)
	s.hub.Broadcast(session.Code, realtime.Event{
		Type:        realtime.EventCaseSelected,
		SessionCode: session.Code,
		ServerTime:  s.now(),
		Data: map[string]any{
			"case_id":     selected.ID,
			"case_title":  selected.Title,
			"category_id": selected.CategoryID,
			"round":       session.Round,
		},
	})
	return selected, nil
}

// StartSession moves a prepared session into the reading phase. Host
// only; needs a selected case plus an active doctor and patient.
func (s *SessionService) StartSession(ctx context.Context, code string, userID uint) error {
	session, err := s.activeSession(code)
	if err != nil {
		return err
	}
	if session.HostID != userID {
		return ErrNotHost
	}
	if session.Phase != model.PhaseCreated {
		return ErrWrongPhase
	}
	if session.SelectedCaseID == 0 {
		return ErrNoCaseSelected
	}

	for _, role := range []string{model.RoleDoctor, model.RolePatient} {
		holder, err := s.participants.GetActiveByRole(session.ID, role)
		if err != nil {
			return err
		}
		if holder == nil {
			return ErrMissingRoles
		}
	}

	return s.advance(ctx, session, model.PhaseReading)
}

// SkipPhase advances the session manually. A concurrent timer expiry
// for the old phase becomes a no-op through the generation check.
func (s *SessionService) SkipPhase(ctx context.Context, code string, userID uint) error {
	session, err := s.activeSession(code)
	if err != nil {
		return err
	}
	if err := s.requireHostOrDoctor(session, userID); err != nil {
		return err
	}

	switch session.Phase {
	case model.PhaseReading, model.PhaseConsultation:
		return s.advance(ctx, session, model.NextPhase(session.Phase))
	case model.PhaseFeedback:
		return s.closeRound(ctx, session)
	default:
		return ErrWrongPhase
	}
}

// CompleteRound records that the caller finished the feedback phase of
// the current round. When every active non-observer is done the round
// closes without waiting for the timer.
func (s *SessionService) CompleteRound(ctx context.Context, code string, userID uint) error {
	session, err := s.activeSession(code)
	if err != nil {
		return err
	}
	if session.Phase != model.PhaseFeedback {
		return ErrWrongPhase
	}

	participant, err := s.participants.GetBySessionAndUser(session.ID, userID)
	if err != nil {
		return err
	}
	if participant == nil || !participant.Active {
		return ErrNotParticipant
	}

	if participant.CompletedRound < session.Round {
		participant.CompletedRound = session.Round
		if err := s.participants.Save(participant); err != nil {
			return err
		}
	}

	s.invalidateState(ctx, session.Code)
	s.broadcastParticipants(session)

	done, err := s.allNonObserversDone(session)
	if err != nil {
		return err
	}
	if done {
		return s.closeRound(ctx, session)
	}
	return nil
}

func (s *SessionService) EndSession(ctx context.Context, code string, userID uint) error {
	session, err := s.activeSession(code)
	if err != nil {
		return err
	}
	if session.HostID != userID {
		return ErrNotHost
	}
	return s.completeSession(ctx, session)
}

func (s *SessionService) activeSession(code string) (*model.Session, error) {
	session, err := s.sessions.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != model.SessionStatusActive {
		return nil, ErrSessionEnded
	}
	return session, nil
}

func (s *SessionService) requireHostOrDoctor(session *model.Session, userID uint) error {
	if session.HostID == userID {
		return nil
	}
	participant, err := s.participants.GetBySessionAndUser(session.ID, userID)
	if err != nil {
		return err
	}
	if participant == nil || !participant.Active {
		return ErrNotParticipant
	}
	if participant.Role != model.RoleDoctor {
		return ErrNotAllowed
	}
	return nil
}

// advance is the single writer for phase transitions. It bumps the
// generation counter, stamps the timestamps, schedules (or cancels) the
// expiry task, and broadcasts the change.
func (s *SessionService) advance(ctx context.Context, session *model.Session, to string) error {
	now := s.now()
	session.Phase = to
	session.PhaseGeneration++
	session.PhaseStartedAt = &now
	session.PhaseDeadline = nil

	duration := session.PhaseDuration(to)
	if duration > 0 {
		deadline := now.Add(duration)
		session.PhaseDeadline = &deadline
	}

	if err := s.sessions.Save(session); err != nil {
		return err
	}

	s.invalidateState(ctx, session.Code)

	s.hub.Broadcast(session.Code, realtime.Event{
		Type:        realtime.EventPhaseChange,
		SessionCode: session.Code,
		ServerTime:  now,
		Data: map[string]any{
			"phase":      session.Phase,
			"round":      session.Round,
			"generation": session.PhaseGeneration,
		},
	})

	if duration > 0 {
		s.hub.Broadcast(session.Code, realtime.Event{
			Type:        realtime.EventTimerStart,
			SessionCode: session.Code,
			ServerTime:  now,
			Data: map[string]any{
				"phase":            session.Phase,
				"deadline":         session.PhaseDeadline,
				"duration_seconds": int(duration.Seconds()),
			},
		})

		code := session.Code
		generation := session.PhaseGeneration
		s.timers.Schedule(code, duration, func() {
			s.expirePhase(code, generation)
		})
	} else {
		s.timers.Cancel(session.Code)
	}

	return nil
}

// expirePhase runs on the timer goroutine when a countdown ends. The
// session is reloaded and the stored generation compared: a manual skip
// that already advanced the phase wins, and the expiry is discarded.
func (s *SessionService) expirePhase(code string, generation int) {
	ctx := context.Background()

	session, err := s.sessions.GetByCode(code)
	if err != nil {
		log.Printf("phase expiry: load session %s failed: %v", code, err)
		return
	}
	if session == nil || session.Status != model.SessionStatusActive {
		return
	}
	if session.PhaseGeneration != generation {
		return
	}

	switch session.Phase {
	case model.PhaseReading, model.PhaseConsultation:
		err = s.advance(ctx, session, model.NextPhase(session.Phase))
	case model.PhaseFeedback:
		err = s.closeRound(ctx, session)
	default:
		return
	}
	if err != nil {
		log.Printf("phase expiry: advance session %s failed: %v", code, err)
	}
}

// closeRound ends the feedback phase. If unused cases remain anywhere
// in the bank the session idles in created awaiting the next topic;
// otherwise the exhaustion policy completes it.
func (s *SessionService) closeRound(ctx context.Context, session *model.Session) error {
	remaining, err := s.cases.CountUnused(session.UsedCaseList())
	if err != nil {
		return err
	}
	if remaining == 0 {
		return s.completeSession(ctx, session)
	}

	session.SelectedCaseID = 0
	return s.advance(ctx, session, model.PhaseCreated)
}

func (s *SessionService) completeSession(ctx context.Context, session *model.Session) error {
	now := s.now()
	session.Phase = model.PhaseCompleted
	session.Status = model.SessionStatusEnded
	session.PhaseGeneration++
	session.PhaseStartedAt = &now
	session.PhaseDeadline = nil

	if err := s.sessions.Save(session); err != nil {
		return err
	}

	s.timers.Cancel(session.Code)
	if s.stateCache != nil {
		_ = s.stateCache.DeleteState(ctx, session.Code)
	}

	s.hub.Broadcast(session.Code, realtime.Event{
		Type:        realtime.EventSessionEnded,
		SessionCode: session.Code,
		ServerTime:  now,
		Data: map[string]any{
			"rounds_played": session.Round,
		},
	})
	s.hub.CloseTopic(session.Code)
	return nil
}

func (s *SessionService) allNonObserversDone(session *model.Session) (bool, error) {
	participants, err := s.participants.ListBySessionID(session.ID)
	if err != nil {
		return false, err
	}
	for _, p := range participants {
		if !p.Active || p.Role == model.RoleObserver {
			continue
		}
		if p.CompletedRound < session.Round {
			return false, nil
		}
	}
	return true, nil
}

func (s *SessionService) broadcastParticipants(session *model.Session) {
	participants, err := s.participants.ListBySessionID(session.ID)
	if err != nil {
		log.Printf("broadcast participants for %s failed: %v", session.Code, err)
		return
	}
	s.hub.Broadcast(session.Code, realtime.Event{
		Type:        realtime.EventParticipantUpdate,
		SessionCode: session.Code,
		ServerTime:  s.now(),
		Data: map[string]any{
			"participants": participants,
		},
	})
}

func (s *SessionService) invalidateState(ctx context.Context, code string) {
	if s.stateCache == nil {
		return
	}
	_ = s.stateCache.MarkDirty(ctx, code)
	_ = s.stateCache.DeleteState(ctx, code)
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
