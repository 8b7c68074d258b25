package matching

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
)

const defaultBatchSize = 10

var ErrDependenciesNil = errors.New("matching dependencies are not configured")

type CandidateStore interface {
	ListLikers(ctx context.Context, userID int64, limit int) ([]model.Participant, error)
	ListCold(ctx context.Context, userID int64, limit int) ([]model.Participant, error)
}

type ParticipantStore interface {
	Get(ctx context.Context, userID int64) (model.Participant, error)
}

// Ledger records the requester's answer to a candidate.
type Ledger interface {
	Like(ctx context.Context, actorID, targetID int64, message string) (model.LikeResult, error)
	Dislike(ctx context.Context, actorID, targetID int64) (model.Interaction, error)
}

type Service struct {
	candidates   CandidateStore
	participants ParticipantStore
	ledger       Ledger
	batchSize    int
	logger       *zap.Logger
}

type Response struct {
	Like *model.LikeResult
	// Next is the candidate to show after the answer, nil when the queue is
	// exhausted.
	Next *model.Participant
	Mode enums.MatchMode
}

func NewService(candidates CandidateStore, participants ParticipantStore, ledger Ledger, batchSize int, logger *zap.Logger) *Service {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		candidates:   candidates,
		participants: participants,
		ledger:       ledger,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// NextCandidates returns unanswered likers of requesterID first and falls back
// to a random sample of unseen participants. An empty batch is a normal state.
func (s *Service) NextCandidates(ctx context.Context, requesterID int64) (model.CandidateBatch, error) {
	if s.candidates == nil {
		return model.CandidateBatch{}, ErrDependenciesNil
	}

	likers, err := s.candidates.ListLikers(ctx, requesterID, s.batchSize)
	if err != nil {
		return model.CandidateBatch{}, fmt.Errorf("list likers: %w", err)
	}
	if batch := s.filter(requesterID, enums.MatchModeLikers, likers); len(batch.Candidates) > 0 {
		return batch, nil
	}

	return s.coldCandidates(ctx, requesterID)
}

// Begin starts a new search for the session owner, replacing any queue left
// from an earlier search.
func (s *Service) Begin(ctx context.Context, session *model.Session) (*model.Participant, error) {
	batch, err := s.NextCandidates(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	session.Queue = model.CandidateQueue{
		Mode: batch.Mode,
		IDs:  batch.IDs(),
	}
	return s.Current(ctx, session)
}

// Current returns the head of the session queue, dropping entries that became
// unavailable since the queue was filled.
func (s *Service) Current(ctx context.Context, session *model.Session) (*model.Participant, error) {
	if s.participants == nil {
		return nil, ErrDependenciesNil
	}
	for {
		head, ok := session.Queue.Head()
		if !ok {
			refilled, err := s.refill(ctx, session)
			if err != nil {
				return nil, err
			}
			if !refilled {
				return nil, nil
			}
			continue
		}

		candidate, err := s.participants.Get(ctx, head)
		if err != nil && !errors.Is(err, pgrepo.ErrParticipantNotFound) {
			return nil, fmt.Errorf("load candidate: %w", err)
		}
		if err == nil && available(session.UserID, candidate) {
			return &candidate, nil
		}
		session.Queue.Remove(head)
	}
}

// Respond records a like or dislike for targetID and advances the queue.
func (s *Service) Respond(ctx context.Context, session *model.Session, targetID int64, liked bool, message string) (Response, error) {
	if s.ledger == nil {
		return Response{}, ErrDependenciesNil
	}

	var response Response
	if liked {
		result, err := s.ledger.Like(ctx, session.UserID, targetID, message)
		if err != nil {
			return Response{}, err
		}
		response.Like = &result
	} else {
		if _, err := s.ledger.Dislike(ctx, session.UserID, targetID); err != nil {
			return Response{}, err
		}
	}

	session.Queue.Remove(targetID)
	next, err := s.Current(ctx, session)
	if err != nil {
		return response, err
	}
	response.Next = next
	response.Mode = session.Queue.Mode
	return response, nil
}

// refill switches a drained likers queue to cold candidates once per search.
func (s *Service) refill(ctx context.Context, session *model.Session) (bool, error) {
	if session.Queue.Mode != enums.MatchModeLikers || session.Queue.Switched {
		return false, nil
	}

	batch, err := s.coldCandidates(ctx, session.UserID)
	if err != nil {
		return false, err
	}
	session.Queue = model.CandidateQueue{
		Mode:     enums.MatchModeCold,
		IDs:      batch.IDs(),
		Switched: true,
	}
	s.logger.Debug("candidate queue switched to cold",
		zap.Int64("user_id", session.UserID),
		zap.Int("size", len(session.Queue.IDs)),
	)
	return len(session.Queue.IDs) > 0, nil
}

func (s *Service) coldCandidates(ctx context.Context, requesterID int64) (model.CandidateBatch, error) {
	cold, err := s.candidates.ListCold(ctx, requesterID, s.batchSize)
	if err != nil {
		return model.CandidateBatch{}, fmt.Errorf("list cold candidates: %w", err)
	}
	batch := s.filter(requesterID, enums.MatchModeCold, cold)
	if len(batch.Candidates) == 0 {
		batch.Mode = enums.MatchModeNone
	}
	return batch, nil
}

func (s *Service) filter(requesterID int64, mode enums.MatchMode, in []model.Participant) model.CandidateBatch {
	out := make([]model.Participant, 0, len(in))
	seen := make(map[int64]struct{}, len(in))
	for _, p := range in {
		if !available(requesterID, p) {
			continue
		}
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		seen[p.UserID] = struct{}{}
		out = append(out, p)
		if len(out) == s.batchSize {
			break
		}
	}
	return model.CandidateBatch{Mode: mode, Candidates: out}
}

func available(requesterID int64, p model.Participant) bool {
	return p.UserID != requesterID && !p.Banned && p.Verification == enums.VerificationApproved
}
