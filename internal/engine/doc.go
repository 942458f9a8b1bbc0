// Package engine implements the asngen association generator.
//
// The engine offers pool items to existing associations and to rule
// templates, grows associations as their constraint trees accept items,
// and feeds reprocess entries produced by evaluation back into its own
// work queue until no work remains.
//
// ARCHITECTURE:
//
// Single-Writer Loop:
// Generate processes all work in the calling goroutine. This ensures:
// - Rules are tried in declaration order
// - Associations are offered items in creation order
// - The same pool and rules always produce the same associations
//
// Work Processing Flow:
// 1. The whole pool is queued as one work list (mode both, all rules)
// 2. Generate dequeues work lists one at a time, FIFO
// 3. Each item is offered to existing associations, then to rule templates
// 4. Reprocess entries from evaluation are queued behind the current work
// 5. When the queue drains, duplicate associations are collapsed and
//    orphaned pool items are collected
//
// TERMINATION:
//
// Reprocessing can feed an item back indefinitely (e.g. an onlyif gate
// with force_reprocess that never opens). Two guards bound the loop:
// - seenTracker skips an (item, scope, mode) triple already processed
// - QuotaEnforcer stops the run after WithMaxSteps item offers
//
// Ordering uses the logical Clock, never wall-clock time.
package engine
