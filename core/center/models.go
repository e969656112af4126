package center

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tachera/mlango/core"
)

// Feature names a gateable application capability. The set is closed:
// names outside it are not gated and resolve as enabled.
type Feature string

const (
	FeatureAttendance  Feature = "attendance"
	FeatureLessonPlans Feature = "lesson_plans"
	FeatureHomework    Feature = "homework"
	FeatureActivities  Feature = "activities"
	FeatureDiscipline  Feature = "discipline"
	FeatureTests       Feature = "tests"
	FeatureFinance     Feature = "finance"
	FeatureReports     Feature = "reports"
)

var AllFeatures = []Feature{
	FeatureAttendance,
	FeatureLessonPlans,
	FeatureHomework,
	FeatureActivities,
	FeatureDiscipline,
	FeatureTests,
	FeatureFinance,
	FeatureReports,
}

func (f Feature) Known() bool {
	for _, feat := range AllFeatures {
		if f == feat {
			return true
		}
	}
	return false
}

func (f Feature) String() string { return string(f) }

// Center is an independently administered school/preschool (a tenant).
type Center struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// FeatureFlag is a per-center gate on one feature. (CenterID, Feature) is
// the composite key; absence of a row for a pair means the feature is enabled.
type FeatureFlag struct {
	CenterID string  `json:"center_id"`
	Feature  Feature `json:"feature_name"`
	Enabled  bool    `json:"is_enabled"`
}

// FlagSet is the flag rows of one center keyed by feature.
// The zero (nil) FlagSet enables everything.
type FlagSet map[Feature]bool

// Enabled reports whether f is enabled under the set.
// A feature without a row defaults to enabled: absence is never a deny.
func (fs FlagSet) Enabled(f Feature) bool {
	if enabled, ok := fs[f]; ok {
		return enabled
	}
	return true
}

// NewFlagSet indexes flag rows for lookup.
func NewFlagSet(flags []FeatureFlag) FlagSet {
	fs := make(FlagSet, len(flags))
	for _, fl := range flags {
		fs[fl.Feature] = fl.Enabled
	}
	return fs
}

// NewCenter contains information needed to create a new Center.
type NewCenter struct {
	Name string `json:"name" validate:"required"`
}

func (nc *NewCenter) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}
