// Package config loads the l1feed service configuration from YAML.
//
// Values are expanded in two steps: [Parse] expands ${VAR} references in
// the raw document, and [Config.Resolve] passes credential-bearing fields
// (RPC URLs, the JWT secret) through a [secret.Resolver] so they can be
// kept in secret stores as "secretref:<provider>:<ref>".
package config
