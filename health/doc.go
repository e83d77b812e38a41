// Package health reports whether the fee service can answer requests.
//
// A [Checker] reports one component. [ProviderChecker] asks every configured
// chain for its unit price; [CacheChecker] flags a computation cache whose
// entries are mostly pending or errored. An [Aggregator] runs checkers
// together and folds their results into one [Status].
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewProviderChecker(provider, clients.Chains()))
//	agg.Register(health.NewCacheChecker(est.Cache(), health.CacheCheckerConfig{}))
//
//	r := mux.NewRouter()
//	health.RegisterHandlers(r, agg)
//
// The routes follow the usual probe split: /healthz answers as long as the
// process serves HTTP, /readyz runs every checker, /health returns the
// per-checker JSON report.
package health
