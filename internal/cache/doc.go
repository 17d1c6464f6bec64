// Package cache makes table fetches idempotent across process runs. A Key maps
// to one artifact under <CacheDir>/<resource>/; artifacts are written through a
// temp file + rename so readers only ever see complete files, and an optional
// per-key file lock keeps concurrent processes from fetching the same resource
// twice. Empty producer results are never persisted, and artifacts that fail to
// decode surface as CorruptCacheError instead of being silently refetched.
package cache
