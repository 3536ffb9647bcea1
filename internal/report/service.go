package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"cloudbill/internal/accounting"
	"cloudbill/internal/metrics"
	"cloudbill/internal/store"
)

// Service computes reports on demand. Each request fetches its full snapshot
// (state history, price history, budgets) up front inside one call sequence,
// then hands it to the engine; nothing computed here is ever persisted.
type Service struct {
	store   *store.Store
	engine  *accounting.Engine
	log     zerolog.Logger
	metrics *metrics.Collector
}

// NewService creates a new report service
func NewService(st *store.Store, log zerolog.Logger, collector *metrics.Collector) *Service {
	return &Service{
		store:   st,
		engine:  accounting.NewEngine(),
		log:     log.With().Str("component", "report").Logger(),
		metrics: collector,
	}
}

// observe records metric samples for one computed report.
func (s *Service) observe(kind, scope string, started time.Time, stateRecords int, err error) {
	if s.metrics == nil {
		return
	}

	if err != nil {
		s.metrics.ReportErrors.WithLabelValues(kind, errorReason(err)).Inc()
		return
	}

	s.metrics.ReportsTotal.WithLabelValues(kind, scope).Inc()
	s.metrics.ReportDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	s.metrics.StateRecordsFetched.Observe(float64(stateRecords))
}

// Consumption computes the resource-hour report for the request scope.
func (s *Service) Consumption(ctx context.Context, req Request) (*accounting.ConsumptionNode, error) {
	started := time.Now()

	snap, window, err := s.fetchSnapshot(ctx, req, 0)
	if err != nil {
		return nil, err
	}

	root, err := s.engine.Consumption(snap, window)
	s.observe("consumption", scopeLabel(req.ProjectID, req.UserID, req.InstanceID), started, len(snap.States), err)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Int("state_records", len(snap.States)).
		Dur("elapsed", time.Since(started)).
		Msg("consumption report computed")

	return scopeConsumption(root, req), nil
}

// Cost computes the monetary cost report for the request scope.
func (s *Service) Cost(ctx context.Context, req Request) (*accounting.CostNode, error) {
	started := time.Now()

	snap, window, err := s.fetchSnapshot(ctx, req, 0)
	if err != nil {
		return nil, err
	}

	root, err := s.engine.Cost(snap, window)
	s.observe("cost", scopeLabel(req.ProjectID, req.UserID, req.InstanceID), started, len(snap.States), err)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Int("state_records", len(snap.States)).
		Int("price_records", len(snap.Prices)).
		Dur("elapsed", time.Since(started)).
		Msg("cost report computed")

	return scopeCost(root, req.ProjectID, req.UserID, req.InstanceID), nil
}

// Budget computes the yearly cost report annotated with budgets.
func (s *Service) Budget(ctx context.Context, req BudgetRequest) (*accounting.CostNode, error) {
	window := accounting.YearWindow(req.Year)
	stateReq := Request{
		Begin:     window.Begin,
		End:       window.End,
		ProjectID: req.ProjectID,
		UserID:    req.UserID,
	}

	started := time.Now()

	snap, _, err := s.fetchSnapshot(ctx, stateReq, req.Year)
	if err != nil {
		return nil, err
	}

	root, err := s.engine.Budget(snap, req.Year, req.Detail)
	s.observe("budget", scopeLabel(req.ProjectID, req.UserID, ""), started, len(snap.States), err)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Int("year", req.Year).
		Bool("detail", req.Detail).
		Int("budgets", len(snap.Budgets)).
		Dur("elapsed", time.Since(started)).
		Msg("budget report computed")

	return scopeCost(root, req.ProjectID, req.UserID, ""), nil
}

// fetchSnapshot gathers every row the engine will need before computation
// starts. year > 0 additionally fetches that year's budgets.
func (s *Service) fetchSnapshot(ctx context.Context, req Request, year int) (accounting.Snapshot, accounting.Window, error) {
	window := accounting.Window{Begin: req.Begin, End: req.End}

	states, err := s.store.States.ListForWindow(ctx, store.StateFilter{
		Begin:      req.Begin,
		End:        req.End,
		ProjectID:  req.ProjectID,
		UserID:     req.UserID,
		InstanceID: req.InstanceID,
	})
	if err != nil {
		return accounting.Snapshot{}, window, fmt.Errorf("fetch state history: %w", err)
	}

	prices, err := s.store.Prices.ListAll(ctx)
	if err != nil {
		return accounting.Snapshot{}, window, fmt.Errorf("fetch price history: %w", err)
	}

	snap := accounting.Snapshot{States: states, Prices: prices}

	if year > 0 {
		budgets, err := s.store.Budgets.ListForYear(ctx, year, "")
		if err != nil {
			return accounting.Snapshot{}, window, fmt.Errorf("fetch budgets: %w", err)
		}
		snap.Budgets = budgets
	}

	return snap, window, nil
}

// scopeCost narrows a full tree to the node the request asked for. An
// instance that changed owners inside the window appears as a leaf under
// each owner; those leaves are merged in sorted traversal order so the
// scoped result stays deterministic. A scoped entity with no activity in
// the window yields an empty zero-valued node of the right level rather
// than a missing one.
func scopeCost(root *accounting.CostNode, projectID, userID, instanceID string) *accounting.CostNode {
	var (
		level accounting.Level
		id    string
	)

	switch {
	case instanceID != "":
		level, id = accounting.LevelServer, instanceID
	case userID != "":
		level, id = accounting.LevelUser, userID
	case projectID != "":
		level, id = accounting.LevelProject, projectID
	default:
		return root
	}

	var scoped *accounting.CostNode
	for _, match := range collectCost(root, level, id) {
		scoped = accounting.Merge(scoped, match)
	}
	if scoped == nil {
		return accounting.NewCostNode(level, id, "")
	}
	return scoped
}

func collectCost(node *accounting.CostNode, level accounting.Level, id string) []*accounting.CostNode {
	if node.Level == level {
		if node.ID == id {
			return []*accounting.CostNode{node}
		}
		return nil
	}

	matches := []*accounting.CostNode{}
	for _, name := range sortedKeys(node.Children) {
		matches = append(matches, collectCost(node.Children[name], level, id)...)
	}
	return matches
}

func scopeConsumption(root *accounting.ConsumptionNode, req Request) *accounting.ConsumptionNode {
	var (
		level accounting.Level
		id    string
	)

	switch {
	case req.InstanceID != "":
		level, id = accounting.LevelServer, req.InstanceID
	case req.UserID != "":
		level, id = accounting.LevelUser, req.UserID
	case req.ProjectID != "":
		level, id = accounting.LevelProject, req.ProjectID
	default:
		return root
	}

	var scoped *accounting.ConsumptionNode
	for _, match := range collectConsumption(root, level, id) {
		scoped = accounting.MergeConsumption(scoped, match)
	}
	if scoped == nil {
		return accounting.NewConsumptionNode(level, id, "")
	}
	return scoped
}

func collectConsumption(node *accounting.ConsumptionNode, level accounting.Level, id string) []*accounting.ConsumptionNode {
	if node.Level == level {
		if node.ID == id {
			return []*accounting.ConsumptionNode{node}
		}
		return nil
	}

	matches := []*accounting.ConsumptionNode{}
	for _, name := range sortedKeys(node.Children) {
		matches = append(matches, collectConsumption(node.Children[name], level, id)...)
	}
	return matches
}

func scopeLabel(projectID, userID, instanceID string) string {
	switch {
	case instanceID != "":
		return string(accounting.LevelServer)
	case userID != "":
		return string(accounting.LevelUser)
	case projectID != "":
		return string(accounting.LevelProject)
	default:
		return string(accounting.LevelAll)
	}
}

func errorReason(err error) string {
	var integrity *accounting.DataIntegrityError
	if errors.As(err, &integrity) {
		return "data_integrity"
	}

	var noPrice *accounting.NoPriceError
	if errors.As(err, &noPrice) {
		return "no_price_regime"
	}

	return "internal"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
