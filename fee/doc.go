// Package fee estimates the L1 security fee charged by OP-stack rollups.
//
// A rollup transaction pays for the L1 data it publishes. Estimator answers
// "how much" for a pending TransactionRequest on a chain: chains without the
// fee resolve to NoFee without any I/O, the others ask a PriceProvider for
// the current unit price and a Calculator for the amount. Results are cached
// per (transaction, chain) under a versioned key, with concurrent requests
// sharing a single computation.
//
// Watch follows changing inputs, such as a wallet switching networks, and
// keeps the last fee visible when the new chain has none.
package fee
