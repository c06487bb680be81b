// Package secret resolves configuration values that carry secrets.
//
// A value is first expanded against the environment with ExpandEnvStrict,
// then any secret reference in it is replaced by its provider's answer.
// References use the prefix "secretref:":
//
//	secretref:env:RBACGATE_TOKEN_SECRET
//	secretref:file:/run/secrets/rbacgate-token
//
// Two providers are built in and registered on DefaultRegistry: "env" reads
// an environment variable and "file" reads a file with surrounding
// whitespace trimmed.
package secret
