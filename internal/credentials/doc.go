// Package credentials resolves secrets such as the npm publish token and the global configuration bearer token from
// textual declarations: "env:NAME", "file:/path/to/token" or a bare environment variable name.
package credentials
