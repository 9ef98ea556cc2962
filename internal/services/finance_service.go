// Package services provides business logic and orchestration services.
//
// FinanceService is the single owner of the budgeting state: origin
// expenses, catalogs, the payment status ledger, monthly history and
// settings. Every command validates, applies the change in memory, persists
// the affected keys and publishes an event. In-memory state is authoritative;
// persistence and publishing failures are logged, never returned.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"bilancio/internal/amqp"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/kv"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
)

// Persisted state keys, one JSON document each.
const (
	KeyFixedExpenses        = "fixedExpenses"
	KeyVariableExpenses     = "variableExpenses"
	KeyCustomCategories     = "customCategories"
	KeyCustomPaymentMethods = "customPaymentMethods"
	KeyMonthlyPaymentStatus = "monthlyPaymentStatus"
	KeyMonthlyHistory       = "monthlyHistory"
	KeyResetDay             = "resetDay"
	KeyIsLocked             = "isLocked"
	KeySyncWithFirebase     = "syncWithFirebase"
)

// StateKeys lists every persisted key in load order.
var StateKeys = []string{
	KeyFixedExpenses,
	KeyVariableExpenses,
	KeyCustomCategories,
	KeyCustomPaymentMethods,
	KeyMonthlyPaymentStatus,
	KeyMonthlyHistory,
	KeyResetDay,
	KeyIsLocked,
	KeySyncWithFirebase,
}

// Clock returns the current wall-clock time. The local calendar date of the
// returned time is what "today" means for rollover and overdue checks.
type Clock func() time.Time

// EventPublisher receives domain events. *amqp.Client implements it.
type EventPublisher interface {
	PublishExpenseChanged(ctx context.Context, msg *amqp.ExpenseChangedMessage) error
	PublishMonthArchived(ctx context.Context, msg *amqp.MonthArchivedMessage) error
}

const (
	defaultCacheSize = 24
	defaultCacheTTL  = 10 * time.Minute
)

// Options configures a FinanceService. Zero values select defaults.
type Options struct {
	Clock           Clock
	Publisher       EventPublisher
	Logger          *log.Logger
	ResetChecker    ResetChecker
	DefaultResetDay int
	CacheSize       int
	CacheTTL        time.Duration
	NewID           func() string
	// SeedDefaults installs the default category and payment method catalog
	// when the store has never persisted one.
	SeedDefaults bool
}

// FinanceService orchestrates the expense store, ledger, projections and
// monthly rollover over a kv.Store.
type FinanceService struct {
	store     kv.Store
	publisher EventPublisher
	logger    *log.Logger
	now       Clock
	newID     func() string
	seed      bool
	defaults  core.Settings

	projections *cache.LRUCache[core.MonthKey, []core.Occurrence]
	rollover    *RolloverProcessor

	mu           sync.RWMutex
	loaded       bool
	fixed        []core.Expense
	variable     []core.Expense
	categories   []core.CustomCategory
	methods      []core.CustomPaymentMethod
	ledger       *ledger.Ledger
	history      []core.MonthlyData
	settings     core.Settings
	currentMonth core.MonthKey
	outbox       []event
	loadArchived *core.MonthlyData

	eventsMu     sync.Mutex
	eventsClosed bool
	events       chan event
	published    chan struct{}
}

// NewFinanceService creates a service over store. Load must be called before
// any other method.
func NewFinanceService(store kv.Store, opts Options) *FinanceService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentStore)
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.DefaultResetDay == 0 {
		opts.DefaultResetDay = core.DefaultResetDay
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}

	settings := core.DefaultSettings()
	if core.ValidateResetDay(opts.DefaultResetDay) == nil {
		settings.ResetDay = opts.DefaultResetDay
	}

	s := &FinanceService{
		store:       store,
		publisher:   opts.Publisher,
		logger:      opts.Logger,
		now:         opts.Clock,
		newID:       opts.NewID,
		seed:        opts.SeedDefaults,
		defaults:    settings,
		projections: cache.NewLRUCache[core.MonthKey, []core.Occurrence](opts.CacheSize, opts.CacheTTL),
		rollover:    NewRolloverProcessor(opts.ResetChecker, opts.Logger.WithComponent(log.ComponentArchiver)),
		ledger:      ledger.New(),
		settings:    settings,
	}
	if s.publisher != nil {
		s.startPublisher()
	}
	return s
}

// Load reads every persisted key. A key that is missing keeps its default; a
// key that cannot be read or decoded is logged, keeps its default and is
// reported in the returned error. The service is usable after Load even when
// it returns an error. Load then runs the rollover check.
func (s *FinanceService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()

	var result *multierror.Error
	missing := map[string]bool{}
	load := func(key string, v any) {
		err := kv.GetJSON(ctx, s.store, key, v)
		switch {
		case err == nil:
		case errors.Is(err, kv.ErrNotFound):
			missing[key] = true
		default:
			s.logger.LogError(ctx, "Failed to load state key, using default", err, log.OpLoad,
				log.NewFields().With(log.FieldKey, key))
			result = multierror.Append(result, fmt.Errorf("load %s: %w", key, err))
		}
	}

	var (
		fixed      []core.Expense
		variable   []core.Expense
		categories []core.CustomCategory
		methods    []core.CustomPaymentMethod
		entries    []core.MonthlyPaymentStatus
		history    []core.MonthlyData
		resetDay   = s.settings.ResetDay
		locked     bool
		syncFlag   bool
	)
	load(KeyFixedExpenses, &fixed)
	load(KeyVariableExpenses, &variable)
	load(KeyCustomCategories, &categories)
	load(KeyCustomPaymentMethods, &methods)
	load(KeyMonthlyPaymentStatus, &entries)
	load(KeyMonthlyHistory, &history)
	load(KeyResetDay, &resetDay)
	load(KeyIsLocked, &locked)
	load(KeySyncWithFirebase, &syncFlag)

	if err := core.ValidateResetDay(resetDay); err != nil {
		s.logger.WarnContext(ctx, "Ignoring persisted reset day", "reset_day", resetDay, "error", err)
		resetDay = s.settings.ResetDay
	}

	for i := range fixed {
		fixed[i].IsFixed = true
	}
	for i := range variable {
		variable[i].IsFixed = false
	}

	s.fixed = fixed
	s.variable = variable
	s.categories = categories
	s.methods = methods
	s.ledger = ledger.FromEntries(entries)
	s.history = history
	s.settings = core.Settings{ResetDay: resetDay, IsLocked: locked, SyncWithFirebase: syncFlag}
	s.currentMonth = core.MonthKeyOf(s.now())
	s.loaded = true
	s.projections.Purge()

	if s.seed && missing[KeyCustomCategories] && missing[KeyCustomPaymentMethods] {
		s.categories = defaultCategories(s.newID)
		s.methods = defaultPaymentMethods(s.newID)
		s.persistLocked(ctx, KeyCustomCategories, KeyCustomPaymentMethods)
		s.logger.InfoContext(ctx, "Seeded default catalog",
			"categories", len(s.categories), "payment_methods", len(s.methods))
	}

	s.logger.InfoContext(ctx, "State loaded",
		"fixed_expenses", len(s.fixed),
		"variable_expenses", len(s.variable),
		"categories", len(s.categories),
		"payment_methods", len(s.methods),
		"ledger_entries", s.ledger.Len(),
		"history", len(s.history),
		"reset_day", s.settings.ResetDay,
		"is_locked", s.settings.IsLocked)

	s.warnUnknownKeysLocked(ctx)

	s.loadArchived = nil
	if s.checkRolloverLocked(ctx) {
		snapshot := s.history[len(s.history)-1]
		s.loadArchived = &snapshot
	}

	return result.ErrorOrNil()
}

func (s *FinanceService) warnUnknownKeysLocked(ctx context.Context) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		s.logger.LogError(ctx, "Failed to list state keys", err, log.OpLoad, nil)
		return
	}
	for _, key := range keys {
		if !slices.Contains(StateKeys, key) {
			s.logger.WarnContext(ctx, "Ignoring unknown state key", log.FieldKey, key)
		}
	}
}

// Close waits for queued events to be handed to the publisher, then
// releases the store and the publisher when they implement io.Closer.
func (s *FinanceService) Close() error {
	s.stopPublisher()

	var result *multierror.Error

	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("amqp: %w", err))
		}
	}

	return result.ErrorOrNil()
}

// mustLoaded panics when the service is used before Load. Using an
// unloaded service is a programming error.
func (s *FinanceService) mustLoaded() {
	if !s.loaded {
		panic("services: FinanceService used before Load")
	}
}

// today is the local calendar date of the clock.
func (s *FinanceService) today() core.Date {
	return core.DateOf(s.now())
}

// persistLocked writes the given keys in one batch. Failures are logged and
// swallowed: the in-memory copy stays authoritative.
func (s *FinanceService) persistLocked(ctx context.Context, keys ...string) {
	entries := make(map[string][]byte, len(keys))
	var encodeErrs *multierror.Error
	for _, key := range keys {
		data, err := json.Marshal(s.valueLocked(key))
		if err != nil {
			encodeErrs = multierror.Append(encodeErrs, fmt.Errorf("encode %s: %w", key, err))
			continue
		}
		entries[key] = data
	}
	if err := encodeErrs.ErrorOrNil(); err != nil {
		s.logger.LogError(ctx, "Failed to encode state", err, log.OpPersist, nil)
	}
	if len(entries) == 0 {
		return
	}
	if err := s.store.SetMany(ctx, entries); err != nil {
		s.logger.LogError(ctx, "Failed to persist state", err, log.OpPersist,
			log.NewFields().With(log.FieldKey, keys))
		return
	}
	s.logger.DebugContext(ctx, "State persisted", "keys", keys)
}

func (s *FinanceService) valueLocked(key string) any {
	switch key {
	case KeyFixedExpenses:
		return nonNil(s.fixed)
	case KeyVariableExpenses:
		return nonNil(s.variable)
	case KeyCustomCategories:
		return nonNil(s.categories)
	case KeyCustomPaymentMethods:
		return nonNil(s.methods)
	case KeyMonthlyPaymentStatus:
		return s.ledger.Entries()
	case KeyMonthlyHistory:
		return nonNil(s.history)
	case KeyResetDay:
		return s.settings.ResetDay
	case KeyIsLocked:
		return s.settings.IsLocked
	case KeySyncWithFirebase:
		return s.settings.SyncWithFirebase
	default:
		panic("services: unknown state key " + key)
	}
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// invalidateLocked drops memoized projections after a change to fixed
// expenses or the ledger.
func (s *FinanceService) invalidateLocked() {
	s.projections.Purge()
}
