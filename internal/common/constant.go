package common

import "time"

// Local cache keys are namespaced with KeyPrefix so portal data never
// collides with other values in the same store.
const KeyPrefix = "dh_"

// LocalKey returns the namespaced local-cache key for name.
func LocalKey(name string) string {
	return KeyPrefix + name
}

// Well-known local cache keys.
const (
	KeyUserProfile   = "user_profile"
	KeyCoursesCache  = "courses_cache"
	KeyVoiceSettings = "voice_settings"
)

// ModuleKey returns the local-cache key for a module bucket.
func ModuleKey(module string) string {
	return KeyPrefix + "module_" + module
}

// Remote collections.
const (
	CollectionUsers       = "users"
	CollectionCourses     = "courses"
	CollectionUserModules = "user_modules"
)

// Feed tuning. These are the only configurable values of the feed layer.
const (
	FeedPageSize = 10
	FeedCacheTTL = time.Hour
)
