package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/asngen/internal/compiler"
	"github.com/roach88/asngen/internal/constraint"
	"github.com/roach88/asngen/internal/ir"
	"github.com/roach88/asngen/internal/metrics"
)

// DefaultMaxSteps is the default maximum number of item offers per run.
// This prevents runaway reprocess chains from consuming unbounded resources.
const DefaultMaxSteps = 1_000_000

// Engine generates associations from a pool of items.
//
// INVARIANTS:
//   - rules slice order NEVER changes after construction
//   - Rule names within rules are unique (checked by Generate)
//   - Evaluation is single-threaded for determinism
//
// An Engine holds no per-run state, so Generate may be called repeatedly
// and from several goroutines.
type Engine struct {
	rules     []*compiler.Rule
	ids       IDGenerator
	maxSteps  int
	only      []string
	validOnly bool
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithMaxSteps sets the maximum number of item offers per run.
//
// Default: DefaultMaxSteps. Zero or less disables the quota.
func WithMaxSteps(maxSteps int) Option {
	return func(e *Engine) {
		e.maxSteps = maxSteps
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the Prometheus collectors. Default: none.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithRuleFilter restricts generation to the named rules.
// Naming a rule that was not given to New is an error at Generate time.
func WithRuleFilter(names ...string) Option {
	return func(e *Engine) {
		e.only = append([]string(nil), names...)
	}
}

// WithValidOnly drops associations that fail their rule's validity
// checks. Their members count as orphans unless another association
// holds them.
func WithValidOnly() Option {
	return func(e *Engine) {
		e.validOnly = true
	}
}

// New creates an Engine over rules, in declaration order.
//
// The rules slice is copied to prevent external mutation from breaking
// the declaration order invariant.
func New(rules []*compiler.Rule, ids IDGenerator, opts ...Option) *Engine {
	var rulesCopy []*compiler.Rule
	if rules != nil {
		rulesCopy = make([]*compiler.Rule, len(rules))
		copy(rulesCopy, rules)
	}
	if ids == nil {
		ids = UUIDv7Generator{}
	}

	e := &Engine{
		rules:    rulesCopy,
		ids:      ids,
		maxSteps: DefaultMaxSteps,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rules in declaration order.
func (e *Engine) Rules() []*compiler.Rule {
	return e.rules
}

// MaxSteps returns the configured quota.
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}

// Result is the outcome of one Generate call.
type Result struct {
	// Associations in creation order, duplicates removed.
	Associations []*ir.Association

	// Orphans are the pool items that joined no association, in pool order.
	Orphans []ir.Item

	// Steps is the number of item offers processed.
	Steps int
}

// ByRule counts associations per rule name.
func (r *Result) ByRule() map[string]int {
	out := make(map[string]int)
	for _, a := range r.Associations {
		out[a.Rule]++
	}
	return out
}

// Generate runs every pool item through the rules and returns the
// resulting associations.
//
// Context cancellation is checked between work lists. Exceeding the step
// quota aborts the run with StepsExceededError.
func (e *Engine) Generate(ctx context.Context, pool []ir.Item) (*Result, error) {
	start := time.Now()
	res, err := e.generate(ctx, pool)
	e.metrics.RecordRun(err == nil, time.Since(start).Seconds())
	return res, err
}

func (e *Engine) generate(ctx context.Context, pool []ir.Item) (*Result, error) {
	rules, err := e.activeRules()
	if err != nil {
		return nil, err
	}

	e.logger.Info("generation starting", "rules", len(rules), "items", len(pool))

	r := &run{
		e:      e,
		rules:  rules,
		queue:  newWorkQueue(),
		seen:   newSeenTracker(),
		quota:  NewQuotaEnforcer(e.maxSteps),
		clock:  NewClock(),
		origin: make(map[string]string, len(pool)),
	}

	poolKeys := make([]string, len(pool))
	for i, item := range pool {
		k := ir.MustItemKey(item)
		poolKeys[i] = k
		r.origin[k] = k
	}
	r.queue.Enqueue(ir.NewProcessList(pool...))

	for {
		if err := ctx.Err(); err != nil {
			e.logger.Info("generation stopping: context cancelled", "steps", r.quota.Current())
			return nil, err
		}
		pl, ok := r.queue.TryDequeue()
		if !ok {
			break
		}
		for _, item := range pl.Items {
			if err := r.process(pl, item); err != nil {
				e.logger.Error("generation aborted",
					"error", err,
					"steps", r.quota.Current(),
					"associations", len(r.asns),
				)
				return nil, err
			}
		}
	}

	res := &Result{
		Associations: r.finalize(r.collapse()),
		Steps:        r.quota.Current(),
	}
	res.Orphans = r.orphans(pool, poolKeys, res.Associations)
	e.metrics.RecordOrphans(len(res.Orphans))

	e.logger.Info("generation complete",
		"associations", len(res.Associations),
		"orphans", len(res.Orphans),
		"steps", res.Steps,
	)
	return res, nil
}

// activeRules applies the rule filter and checks rule names are unique.
func (e *Engine) activeRules() ([]*compiler.Rule, error) {
	if len(e.rules) == 0 {
		return nil, &RuntimeError{Code: ErrCodeNoRules, Message: "no rules to generate from"}
	}

	byName := make(map[string]bool, len(e.rules))
	for _, rule := range e.rules {
		if byName[rule.Name] {
			return nil, &RuntimeError{Code: ErrCodeDuplicateRule, Message: "rule defined twice", Rule: rule.Name}
		}
		byName[rule.Name] = true
	}

	if len(e.only) == 0 {
		return e.rules, nil
	}
	wanted := make(map[string]bool, len(e.only))
	for _, name := range e.only {
		if !byName[name] {
			return nil, &RuntimeError{Code: ErrCodeUnknownRule, Message: "rule filter names an unknown rule", Rule: name}
		}
		wanted[name] = true
	}
	var out []*compiler.Rule
	for _, rule := range e.rules {
		if wanted[rule.Name] {
			out = append(out, rule)
		}
	}
	return out, nil
}

// association is a live association: its output record plus the bound
// tree that decides which items it still accepts.
type association struct {
	rec  *ir.Association
	tree *constraint.Tree
	rule *compiler.Rule
}

// run holds the state of one Generate call.
// CRITICAL: only ever touched from the Generate goroutine.
type run struct {
	e     *Engine
	rules []*compiler.Rule
	queue *workQueue
	seen  *seenTracker
	quota *QuotaEnforcer
	clock *Clock
	asns  []*association

	// origin maps an item key to the key of the item it was derived from.
	// Pool items map to themselves.
	origin map[string]string
}

// process offers one item from work list pl to existing associations and
// rule templates, as pl's mode and rule scope allow.
func (r *run) process(pl ir.ProcessList, item ir.Item) error {
	key := ir.MustItemKey(item)
	if !r.seen.Visit(key, pl) {
		r.e.logger.Debug("item already processed in scope, skipping",
			"item", item.Text(),
			"work_over", pl.Mode().String(),
		)
		return nil
	}
	if err := r.quota.Check(); err != nil {
		return err
	}

	mode := pl.Mode()
	accepted := make(map[string]bool)

	if mode.IncludesExisting() {
		for _, asn := range r.asns {
			rule := asn.rec.Rule
			if !pl.AllowsRule(rule) {
				continue
			}
			if asn.rec.HasMember(item) {
				accepted[rule] = true
				continue
			}

			bound, reprocess := constraint.Evaluate(item, asn.tree)
			matched := bound != nil
			r.e.metrics.RecordEvaluation("existing", matched)
			if matched {
				asn.tree = bound
				asn.rec.Members = append(asn.rec.Members, item)
				accepted[rule] = true
				r.e.logger.Debug("item joined association",
					"id", asn.rec.ID,
					"rule", rule,
					"item", item.Text(),
				)
			}
			r.requeue(key, rule, matched, reprocess)
		}
	}

	if mode.IncludesRules() {
		for _, rule := range r.rules {
			if !pl.AllowsRule(rule.Name) || accepted[rule.Name] {
				continue
			}

			bound, reprocess := constraint.Evaluate(item, rule.Template)
			matched := bound != nil
			r.e.metrics.RecordEvaluation("rule", matched)
			if matched {
				r.create(rule, bound, item)
			}
			r.requeue(key, rule.Name, matched, reprocess)
		}
	}
	return nil
}

// create starts a new association from a template match.
func (r *run) create(rule *compiler.Rule, tree *constraint.Tree, item ir.Item) {
	asn := &association{
		rec: &ir.Association{
			ID:      r.e.ids.Generate(),
			Rule:    rule.Name,
			Seq:     r.clock.Next(),
			Members: []ir.Item{item},
		},
		tree: tree,
		rule: rule,
	}
	r.asns = append(r.asns, asn)
	r.e.metrics.RecordCreated(rule.Name)

	r.e.logger.Debug("association created",
		"id", asn.rec.ID,
		"rule", rule.Name,
		"seq", asn.rec.Seq,
		"item", item.Text(),
	)
}

// requeue queues the reprocess entries from one evaluation.
//
// Entries marked OnlyOnMatch are dropped when the evaluation did not
// match. Entries without a rule scope are scoped to the rule that
// produced them.
func (r *run) requeue(parentKey, rule string, matched bool, entries []ir.ProcessList) {
	for _, pl := range entries {
		mode := pl.Mode().String()
		if pl.OnlyOnMatch && !matched {
			r.e.metrics.RecordReprocess(mode, false)
			continue
		}
		if len(pl.Rules) == 0 {
			pl.Rules = []string{rule}
		}
		for _, it := range pl.Items {
			k := ir.MustItemKey(it)
			if _, ok := r.origin[k]; !ok {
				r.origin[k] = parentKey
			}
		}
		r.queue.Enqueue(pl)
		r.e.metrics.RecordReprocess(mode, true)
	}
}

// collapse finalizes live associations into output records, keeping the
// first association of each (rule, member set) pair.
func (r *run) collapse() []*association {
	out := make([]*association, 0, len(r.asns))
	seen := make(map[string]bool, len(r.asns))
	for _, asn := range r.asns {
		h, err := ir.MembershipHash(asn.rec.Rule, asn.rec.Members)
		if err != nil {
			// Items are string maps; hashing cannot fail.
			panic(fmt.Sprintf("membership hash: %v", err))
		}
		if seen[h] {
			r.e.metrics.RecordCollapsed(asn.rec.Rule)
			r.e.logger.Debug("duplicate association collapsed", "id", asn.rec.ID, "rule", asn.rec.Rule)
			continue
		}
		seen[h] = true

		asn.rec.Constraints = asn.tree.Values()
		asn.rec.FoundValues = asn.tree.FoundValues()
		asn.rec.Invalid = !asn.rule.Valid(asn.rec.Members)
		out = append(out, asn)
	}
	return out
}

// finalize applies the validity policy to collapsed associations and
// names the survivors. The {seq} of a name counts per rule from 1 in
// output order.
func (r *run) finalize(asns []*association) []*ir.Association {
	out := make([]*ir.Association, 0, len(asns))
	perRule := make(map[string]int)
	for _, asn := range asns {
		if asn.rec.Invalid {
			r.e.metrics.RecordInvalid(asn.rec.Rule, r.e.validOnly)
			if r.e.validOnly {
				r.e.logger.Debug("invalid association dropped", "id", asn.rec.ID, "rule", asn.rec.Rule)
				continue
			}
		}
		perRule[asn.rec.Rule]++
		asn.rec.Name = asn.rule.AssociationName(asn.tree, perRule[asn.rec.Rule])
		out = append(out, asn.rec)
	}
	return out
}

// orphans returns the pool items that no association member derives from.
func (r *run) orphans(pool []ir.Item, poolKeys []string, asns []*ir.Association) []ir.Item {
	used := make(map[string]bool)
	for _, a := range asns {
		for _, m := range a.Members {
			k := ir.MustItemKey(m)
			// Walk back to the pool item; origin chains are acyclic
			// because an item's origin is set only once.
			for !used[k] {
				used[k] = true
				parent, ok := r.origin[k]
				if !ok || parent == k {
					break
				}
				k = parent
			}
		}
	}

	out := make([]ir.Item, 0)
	for i, item := range pool {
		if !used[poolKeys[i]] {
			out = append(out, item)
		}
	}
	return out
}
