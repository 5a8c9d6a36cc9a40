package booking

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Dependencies are the collaborators the engine is built from.
type Dependencies struct {
	Communities   CommunityProvider
	Store         ReservationStore
	Profiles      ProfileProvider
	Subscriptions SubscriptionProvider
	// BookingTiers lists the product tiers that grant booking rights.
	BookingTiers []string
	Listeners    []AdmissionListener
}

// Engine is the entry point used by callers: eligibility, slot tables and
// admission over one set of collaborators.
type Engine struct {
	communities CommunityProvider
	gate        *Gate
	resolver    *Resolver
	evaluator   *Evaluator
	controller  *Controller
}

func NewEngine(deps Dependencies) (*Engine, error) {
	if deps.Communities == nil || deps.Store == nil || deps.Profiles == nil || deps.Subscriptions == nil {
		return nil, errors.New("booking engine requires communities, store, profiles and subscriptions")
	}
	gate := NewGate(deps.Profiles, deps.Subscriptions, deps.BookingTiers)
	resolver := NewResolver(deps.Profiles)
	return &Engine{
		communities: deps.Communities,
		gate:        gate,
		resolver:    resolver,
		evaluator:   NewEvaluator(deps.Store),
		controller:  NewController(deps.Communities, deps.Store, gate, resolver, deps.Listeners...),
	}, nil
}

// SlotTable is the classified grid for one community, date and duration.
type SlotTable struct {
	CommunityID int64   `json:"community_id"`
	Date        Date    `json:"date"`
	Duration    Minutes `json:"duration"`
	Slots       []Slot  `json:"slots"`
}

func (e *Engine) Community(ctx context.Context, id int64) (Community, error) {
	return e.communities.GetCommunity(ctx, id)
}

func (e *Engine) Eligibility(ctx context.Context, userID string, now time.Time) (EligibilityResult, error) {
	return e.gate.Check(ctx, userID, now)
}

func (e *Engine) EffectiveOwner(ctx context.Context, userID string) (string, error) {
	return e.resolver.EffectiveOwner(ctx, userID)
}

// Slots classifies every slot of the community for date. A zero duration
// selects the community default.
func (e *Engine) Slots(ctx context.Context, communityID int64, date Date, duration Minutes, now time.Time) (SlotTable, error) {
	community, err := e.communities.GetCommunity(ctx, communityID)
	if err != nil {
		return SlotTable{}, fmt.Errorf("load community %d: %w", communityID, err)
	}
	if duration == 0 {
		duration = community.DefaultDuration
	}
	return SlotTable{
		CommunityID: community.ID,
		Date:        date,
		Duration:    duration,
		Slots:       e.evaluator.Table(ctx, community, date, duration, now),
	}, nil
}

func (e *Engine) Admit(ctx context.Context, req AdmissionRequest, now time.Time) (Booking, error) {
	return e.controller.Admit(ctx, req, now)
}
