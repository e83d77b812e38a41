// Package secret keeps credentials such as RPC URLs with API keys and the
// JWT signing secret out of configuration files.
//
// A configuration value is first expanded with [ExpandEnvStrict]; a value of
// the form "secretref:<provider>:<ref>" is then handed to the named
// [Provider]. Two providers ship with the package: [EnvProvider] ("env")
// and [FileProvider] ("file", for mounted secret volumes).
//
//	r := secret.NewResolver(true, secret.EnvProvider{}, secret.NewFileProvider("/run/secrets"))
//	url, err := r.ResolveValue(ctx, "secretref:file:optimism-rpc")
package secret
