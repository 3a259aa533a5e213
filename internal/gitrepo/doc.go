// Package gitrepo reads and prepares the repository a pipeline runs against.
//
// Reads go through go-git: the subject of the latest commit, the remote-tracking branches and the origin remote
// URL. The checkout is a go-git shallow clone. Pruning stale remote-tracking refs shells out to git because go-git
// has no equivalent of `git remote prune`.
package gitrepo
