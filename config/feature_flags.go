package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages runtime toggles for behaviors the school network has not
// settled on yet: whether blocked days are enforced, removable or unique.
// Flags can be overridden per profile (master, teacher_*, visitor) and rolled
// out to a share of sessions.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// profile key -> feature -> enabled
	profileOverrides map[string]map[string]bool
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100). Sessions are bucketed by a hash of their ID.
	RolloutPercent int
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	SessionID string
	Profile   string
}

// Predefined feature flag names.
const (
	// === School calendar ===
	FeatureBlockedDayEnforcement = "calendar.blocked_day_enforcement" // blocked days make diary/attendance read-only
	FeatureBlockedDayRemoval     = "calendar.blocked_day_removal"     // removing a blocked day is persisted
	FeatureBlockedDayDedupe      = "calendar.blocked_day_dedupe"      // reject a second block for the same date

	// === Frequency sheet ===
	FeatureFrequencyLoadSaved = "frequency.load_saved" // pre-fill the monthly grid with saved attendance

	// === Reports ===
	FeatureReportsExport = "reports.export_xlsx" // spreadsheet downloads
)

// LoadFeatureFlags loads feature flags with defaults and environment overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		profileOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureBlockedDayEnforcement] = &Feature{
		Name:           FeatureBlockedDayEnforcement,
		Description:    "Reject diary and attendance entry on blocked days",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureBlockedDayRemoval] = &Feature{
		Name:           FeatureBlockedDayRemoval,
		Description:    "Persist removal of blocked days",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Duplicates stay allowed until the secretariat decides otherwise.
	ff.features[FeatureBlockedDayDedupe] = &Feature{
		Name:           FeatureBlockedDayDedupe,
		Description:    "Reject duplicate blocked days for one date",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureFrequencyLoadSaved] = &Feature{
		Name:           FeatureFrequencyLoadSaved,
		Description:    "Pre-fill the monthly frequency grid with saved marks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureReportsExport] = &Feature{
		Name:           FeatureReportsExport,
		Description:    "Allow .xlsx export of grids and reports",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_CALENDAR_BLOCKED_DAY_DEDUPE=true
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}
		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}
		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "calendar.blocked_day_removal" -> "FEATURE_CALENDAR_BLOCKED_DAY_REMOVAL"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
// A nil context evaluates the global setting.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if ctx != nil && ctx.Profile != "" {
		if overrides, ok := ff.profileOverrides[ctx.Profile]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok || !feature.Enabled {
		return false
	}

	if feature.RolloutPercent < 100 && ctx != nil && ctx.SessionID != "" {
		return isInRollout(ctx.SessionID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout buckets a session consistently for a feature.
func isInRollout(sessionID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(sessionID))
	return int(h.Sum32()%100) < percent
}

// SetProfileOverride forces a feature on or off for one profile.
func (ff *FeatureFlags) SetProfileOverride(profile, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.profileOverrides[profile]; !ok {
		ff.profileOverrides[profile] = make(map[string]bool)
	}
	ff.profileOverrides[profile][featureName] = enabled
}

// ClearProfileOverrides removes all overrides for a profile.
func (ff *FeatureFlags) ClearProfileOverrides(profile string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.profileOverrides, profile)
}

// SetRolloutPercent updates the rollout percentage for a feature.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0
	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]Feature, len(ff.features))
	for k, v := range ff.features {
		result[k] = *v
	}
	return result
}

// --- Convenience checks ---

// BlockedDayEnforcement reports whether blocked days are enforced.
func (ff *FeatureFlags) BlockedDayEnforcement(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureBlockedDayEnforcement, ctx)
}

// BlockedDayRemoval reports whether removing blocked days is allowed.
func (ff *FeatureFlags) BlockedDayRemoval() bool {
	return ff.IsEnabled(FeatureBlockedDayRemoval, nil)
}

// BlockedDayDedupe reports whether duplicate blocked days are rejected.
func (ff *FeatureFlags) BlockedDayDedupe() bool {
	return ff.IsEnabled(FeatureBlockedDayDedupe, nil)
}

// FrequencyLoadSaved reports whether the monthly grid starts from saved marks.
func (ff *FeatureFlags) FrequencyLoadSaved(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureFrequencyLoadSaved, ctx)
}

// ReportsExport reports whether .xlsx downloads are allowed.
func (ff *FeatureFlags) ReportsExport(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureReportsExport, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
