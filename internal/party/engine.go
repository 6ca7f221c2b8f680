// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

// Package party owns the event lifecycle: scheduled parties move to
// in_progress when round 1 is scheduled, accumulate round results and
// signals, and become completed with write-once-immutable results.
// Reports are derived from completed parties; recomputation creates a
// new report rather than mutating an old one.
package party

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tablemix/internal/conversation"
	"github.com/tomtom215/tablemix/internal/logging"
	"github.com/tomtom215/tablemix/internal/models"
	"github.com/tomtom215/tablemix/internal/report"
	"github.com/tomtom215/tablemix/internal/scheduler"
	"github.com/tomtom215/tablemix/internal/scoring"
	"github.com/tomtom215/tablemix/internal/signals"
	"github.com/tomtom215/tablemix/internal/storage"
)

// Store is the persistence collaborator. Records are keyed by opaque
// string ids; missing records return errors wrapping storage.ErrNotFound.
type Store interface {
	GetParty(ctx context.Context, id string) (*models.Party, error)
	PutParty(ctx context.Context, p *models.Party) error
	ListParties(ctx context.Context) ([]*models.Party, error)

	GetProfile(ctx context.Context, id string) (*models.Participant, error)
	PutProfile(ctx context.Context, p *models.Participant) error

	GetReport(ctx context.Context, id string) (*models.Report, error)
	PutReport(ctx context.Context, r *models.Report) error
}

// CreateRequest carries the inputs for a new party. Table-size bounds
// left at zero are filled from the engine's configured defaults before
// validation.
type CreateRequest struct {
	Name           string   `json:"name" validate:"max=200"`
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=2"`
	Rounds         int      `json:"rounds" validate:"required,gt=0"`
	MinTableSize   int      `json:"min_table_size" validate:"omitempty,gte=2"`
	MaxTableSize   int      `json:"max_table_size" validate:"omitempty,gtefield=MinTableSize"`
}

// TableDefaults are the table-size bounds applied when a create request
// leaves them unset.
type TableDefaults struct {
	MinTableSize int
	MaxTableSize int
}

// Engine coordinates the scheduler, context builder, signal aggregation,
// and report generation over one Store. It serializes state transitions
// per party so the count/strength merge and the lifecycle guards are
// never racing concurrent writers.
type Engine struct {
	store      Store
	registry   *signals.Registry
	builder    *conversation.Builder
	scorer     *scoring.Scorer
	generator  *report.Generator
	scoringCfg scoring.Config
	defaults   TableDefaults
	logger     zerolog.Logger

	// mu guards read-modify-write cycles on party records. One lock per
	// party id; parties never share mutable state.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates an engine over the given store. The scoring
// configuration is validated up front so every later scoring call is
// reproducible under the same parameters.
func NewEngine(store Store, scoringCfg scoring.Config) (*Engine, error) {
	scorer, err := scoring.NewScorer(scoringCfg)
	if err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}

	return &Engine{
		store:      store,
		registry:   signals.NewRegistry(),
		builder:    conversation.NewBuilder(),
		scorer:     scorer,
		generator:  report.NewGenerator(scorer),
		scoringCfg: scoringCfg,
		defaults:   TableDefaults{MinTableSize: 3, MaxTableSize: 4},
		logger:     logging.Component("party"),
		locks:      make(map[string]*sync.Mutex),
	}, nil
}

// SetTableDefaults overrides the table-size bounds used when a create
// request omits them.
func (e *Engine) SetTableDefaults(d TableDefaults) {
	e.defaults = d
}

func (e *Engine) lockParty(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// CreateParty validates the request, normalizes the participant list,
// and persists a new party in the scheduled state.
func (e *Engine) CreateParty(ctx context.Context, req CreateRequest) (*models.Party, error) {
	if req.MinTableSize == 0 {
		req.MinTableSize = e.defaults.MinTableSize
	}
	if req.MaxTableSize == 0 {
		req.MaxTableSize = e.defaults.MaxTableSize
	}

	cfg := scheduler.Config{
		Rounds:       req.Rounds,
		MinTableSize: req.MinTableSize,
		MaxTableSize: req.MaxTableSize,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool := scheduler.NewPool(req.ParticipantIDs)
	if err := pool.Validate(cfg.MinTableSize); err != nil {
		return nil, err
	}

	p := &models.Party{
		ID:             uuid.NewString(),
		Name:           req.Name,
		State:          models.PartyScheduled,
		ParticipantIDs: pool.IDs(),
		RoundCount:     cfg.Rounds,
		MinTableSize:   cfg.MinTableSize,
		MaxTableSize:   cfg.MaxTableSize,
		CreatedAt:      time.Now().UTC(),
	}

	if err := e.store.PutParty(ctx, p); err != nil {
		return nil, fmt.Errorf("persisting party: %w", err)
	}

	e.logger.Info().
		Str("party_id", p.ID).
		Int("participants", pool.Size()).
		Int("rounds", cfg.Rounds).
		Msg("Party created")

	return p, nil
}

// GetParty loads one party.
func (e *Engine) GetParty(ctx context.Context, id string) (*models.Party, error) {
	p, err := e.store.GetParty(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPartyNotFound, id)
		}
		return nil, fmt.Errorf("loading party: %w", err)
	}
	return p, nil
}

// ListParties returns all stored parties.
func (e *Engine) ListParties(ctx context.Context) ([]*models.Party, error) {
	return e.store.ListParties(ctx)
}

// RegisterProfile stores or replaces a participant profile.
func (e *Engine) RegisterProfile(ctx context.Context, p models.Participant) error {
	if p.ProfileID == "" {
		return fmt.Errorf("%w: empty profile id", ErrProfileNotFound)
	}
	return e.store.PutProfile(ctx, &p)
}

// GetProfile loads one participant profile.
func (e *Engine) GetProfile(ctx context.Context, id string) (*models.Participant, error) {
	p, err := e.store.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
		}
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return p, nil
}

// ScheduleParty computes all rounds for a scheduled party, derives the
// conversation context for every table, and moves the party to
// in_progress. The full round structure is produced before anything is
// persisted; on any error the party stays scheduled and untouched.
func (e *Engine) ScheduleParty(ctx context.Context, partyID string) (*models.Party, error) {
	lock := e.lockParty(partyID)
	lock.Lock()
	defer lock.Unlock()

	p, err := e.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if p.State != models.PartyScheduled {
		return nil, fmt.Errorf("%w: cannot schedule a party in state %s", ErrInvalidPartyState, p.State)
	}

	sched, err := scheduler.New(scheduler.Config{
		Rounds:       p.RoundCount,
		MinTableSize: p.MinTableSize,
		MaxTableSize: p.MaxTableSize,
	})
	if err != nil {
		return nil, err
	}

	rounds, err := sched.Schedule(scheduler.NewPool(p.ParticipantIDs))
	if err != nil {
		return nil, err
	}

	participants := e.loadProfiles(ctx, p.ParticipantIDs)
	for i := range rounds {
		rounds[i].Contexts = e.builder.BuildRound(rounds[i].Tables, participants)
	}

	p.State = models.PartyInProgress
	p.Results.Rounds = rounds
	p.CoOccurrence = sched.CoOccurrence()

	if err := e.store.PutParty(ctx, p); err != nil {
		return nil, fmt.Errorf("persisting schedule: %w", err)
	}

	e.logger.Info().
		Str("party_id", p.ID).
		Int("rounds", len(rounds)).
		Msg("Party scheduled")

	return p, nil
}

// RoundContext returns the conversation contexts for one round of an
// already scheduled party.
func (e *Engine) RoundContext(ctx context.Context, partyID string, roundNumber int) ([]models.ConversationContext, error) {
	p, err := e.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}
	for _, round := range p.Results.Rounds {
		if round.RoundNumber == roundNumber {
			return round.Contexts, nil
		}
	}
	return nil, fmt.Errorf("%w: round %d of party %s", ErrRoundNotFound, roundNumber, partyID)
}

// RecordSignal validates and merges one interaction signal, then appends
// it to the party's results. Signals are rejected once the party is
// completed; results are write-once thereafter.
func (e *Engine) RecordSignal(ctx context.Context, partyID string, sig models.InteractionSignal) error {
	lock := e.lockParty(partyID)
	lock.Lock()
	defer lock.Unlock()

	p, err := e.GetParty(ctx, partyID)
	if err != nil {
		return err
	}
	if p.State == models.PartyCompleted {
		return fmt.Errorf("%w: signals are rejected after completion", ErrPartyCompleted)
	}

	if sig.ObservedAt.IsZero() {
		sig.ObservedAt = time.Now().UTC()
	}

	agg := e.registry.For(p.ID, p.ParticipantIDs)
	if err := agg.Validate(sig); err != nil {
		return err
	}

	p.Results.Signals = append(p.Results.Signals, sig)
	if err := e.store.PutParty(ctx, p); err != nil {
		return fmt.Errorf("persisting signal: %w", err)
	}

	// Merge only after the put succeeds: a failed write must leave the
	// live aggregate matching the persisted list, or a redelivered feed
	// message would double-count.
	if err := agg.Record(sig); err != nil {
		return err
	}

	e.logger.Debug().
		Str("party_id", p.ID).
		Str("kind", string(sig.Kind)).
		Float64("strength", sig.Strength).
		Msg("Signal recorded")

	return nil
}

// CompleteParty finalizes an in_progress party. Results become immutable
// and the live aggregator is released; reports rebuild aggregates from
// the persisted signal list.
func (e *Engine) CompleteParty(ctx context.Context, partyID string) (*models.Party, error) {
	lock := e.lockParty(partyID)
	lock.Lock()
	defer lock.Unlock()

	p, err := e.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}
	switch p.State {
	case models.PartyCompleted:
		return nil, fmt.Errorf("%w: %s", ErrPartyCompleted, partyID)
	case models.PartyInProgress:
	default:
		return nil, fmt.Errorf("%w: cannot complete a party in state %s", ErrInvalidPartyState, p.State)
	}

	now := time.Now().UTC()
	p.State = models.PartyCompleted
	p.CompletedAt = &now

	if err := e.store.PutParty(ctx, p); err != nil {
		return nil, fmt.Errorf("persisting completion: %w", err)
	}

	e.registry.Drop(p.ID)

	e.logger.Info().
		Str("party_id", p.ID).
		Int("signals", len(p.Results.Signals)).
		Msg("Party completed")

	return p, nil
}

// GenerateReport builds and persists a report for one profile of a
// completed party. Aggregates are rebuilt deterministically from the
// persisted signal list, so identical data always yields equal scores.
func (e *Engine) GenerateReport(ctx context.Context, partyID, profileID string, reportType models.ReportType) (*models.Report, error) {
	p, err := e.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}

	agg := signals.NewAggregator(p.ParticipantIDs)
	for _, sig := range p.Results.Signals {
		if err := agg.Record(sig); err != nil {
			return nil, fmt.Errorf("replaying signal: %w", err)
		}
	}

	profiles := make(map[string]models.Participant)
	for _, participant := range e.loadProfiles(ctx, p.ParticipantIDs) {
		profiles[participant.ProfileID] = participant
	}

	rpt, err := e.generator.Generate(p, profiles, agg, profileID, reportType)
	if err != nil {
		return nil, err
	}

	if err := e.store.PutReport(ctx, rpt); err != nil {
		return nil, fmt.Errorf("persisting report: %w", err)
	}

	e.logger.Info().
		Str("party_id", partyID).
		Str("profile_id", profileID).
		Str("type", string(reportType)).
		Int("matches", len(rpt.Matches)).
		Msg("Report generated")

	return rpt, nil
}

// GetReport loads one previously generated report by id.
func (e *Engine) GetReport(ctx context.Context, id string) (*models.Report, error) {
	r, err := e.store.GetReport(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
		}
		return nil, fmt.Errorf("loading report: %w", err)
	}
	return r, nil
}

// Pairings returns the co-occurrence matrix of a scheduled party.
func (e *Engine) Pairings(ctx context.Context, partyID string) (map[string]int, error) {
	p, err := e.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if p.State == models.PartyScheduled {
		return nil, fmt.Errorf("%w: party has not been scheduled yet", ErrInvalidPartyState)
	}
	out := make(map[string]int, len(p.CoOccurrence))
	for k, v := range p.CoOccurrence {
		out[k] = v
	}
	return out, nil
}

// loadProfiles fetches the stored profiles for the given ids. Missing
// profiles are skipped; scoring and context building degrade to partial
// data rather than failing.
func (e *Engine) loadProfiles(ctx context.Context, ids []string) []models.Participant {
	out := make([]models.Participant, 0, len(ids))
	for _, id := range ids {
		p, err := e.store.GetProfile(ctx, id)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				e.logger.Warn().Err(err).Str("profile_id", id).Msg("Failed to load profile")
			}
			continue
		}
		out = append(out, *p)
	}
	return out
}
