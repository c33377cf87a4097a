// Package models defines the core domain models for tabsettle.
//
// # Models
//
//   - Session: one bill-splitting round inside a group (at most one OPEN per group)
//   - OrderItem: an item requested in a session, priced and payer-assigned by collaborators
//   - Membership: a user's role in a group, used for the roster and admin checks
//   - Settlement: the computed payment plan for exactly one session
//   - Transaction: one pairwise payment obligation inside a settlement
//   - LedgerEntry: an immutable audit record of a single monetary event
//
// # Money
//
// All amounts are decimal.Decimal values rounded to two places before they are
// persisted. Balances are signed: negative means the user owes, positive means
// the user is owed.
//
// # Relationships
//
// Models reference each other by ID strings, never by pointer. A Settlement
// owns its Transactions; each Transaction has its own ID so it can be
// confirmed without rewriting the parent. LedgerEntries copy the item
// metadata they document so reports stay correct after items change.
package models
