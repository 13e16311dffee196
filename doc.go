// Package grid manages customizable listing grids: the column sets attached
// to a grid block, the named profiles users switch between, and the layered
// default parameters that shape pagination, sorting, filtering and display.
//
// A Grid is a request-scoped aggregate. It keeps its raw attributes in a
// Record and computes everything else lazily, caching derived values in a
// DerivedValueStore whose invalidation groups are declared once:
//
//	type      -> type code, type handler, base type handler
//	columns   -> column index (columns, origin buckets, max order)
//	profiles  -> profiles, current profile ID (+ available_profiles)
//	users     -> users config
//	roles     -> roles config (+ available_profiles)
//
// Collaborators stay behind small interfaces: Storage loads raw rows,
// PermissionChecker answers capability checks, TypeRegistry matches block
// types to handlers and SessionStore keeps per-session selections. Adapters
// for Postgres, Redis, Badger and Prometheus live under pkg/.
//
// Grids are not safe for concurrent use; load one per request.
package grid
