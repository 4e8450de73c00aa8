// Package cache provides the persisted status snapshot cache.
//
// Sessions store their last fully-initialised status snapshot on graceful
// shutdown and restore it on startup, letting the system present useful
// state while the appliance is still unreachable.
//
// Keys follow the format "<schema-version>:<serial-number>". The schema
// version is bumped when the snapshot format changes; stale versions are
// abandoned rather than migrated.
//
// The cloud credential cache also lives on the same Store, under
// "<account-email>:token" and "<account-email>:challenge" keys.
package cache
