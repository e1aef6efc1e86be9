// Package registry persists the set of server instances mcphub has started.
//
// The registry is a map from instance id ("name:port") to [Instance]. It is
// loaded fresh from a [Store] on every CLI invocation and rewritten in full
// after each mutation; the file on disk is the only source of truth.
//
// Entries whose pid is no longer alive are removed by [PurgeDefunct] before
// any listing, so readers never see processes that have exited.
package registry
