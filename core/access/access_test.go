package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/tachera/mlango/core/center"
	"github.com/tachera/mlango/core/user"
)

func centerUser(role user.Role, centerID string) user.User {
	return user.User{
		ID:       "9f2b3bb2-6e07-4b2e-a86f-34a041bd3d69",
		Role:     role,
		CenterID: null.StringFrom(centerID),
		IsActive: true,
	}
}

func adminUser() user.User {
	return user.User{
		ID:       "c10e5b59-1c29-4f8e-8bde-6e0f82cf7a1e",
		Role:     user.RoleAdmin,
		IsActive: true,
	}
}

func TestAuthorize(t *testing.T) {
	center7 := "center-7"

	tests := []struct {
		name  string
		usr   user.User
		req   Requirement
		flags center.FlagSet
		want  Decision
	}{
		{
			name: "matching role allows",
			usr:  centerUser(user.RoleCenterStaff, center7),
			req:  Requirement{Role: user.RoleCenterStaff},
			want: Allow,
		},
		{
			name: "teacher denied a staff route",
			usr:  centerUser(user.RoleTeacher, center7),
			req:  Requirement{Role: user.RoleCenterStaff},
			want: Deny(DenyWrongRole),
		},
		{
			name: "parent denied a teacher route",
			usr:  centerUser(user.RoleParent, center7),
			req:  Requirement{Role: user.RoleTeacher},
			want: Deny(DenyWrongRole),
		},
		{
			name: "admin granted cross-role access",
			usr:  adminUser(),
			req:  Requirement{Role: user.RoleCenterStaff},
			want: Allow,
		},
		{
			name: "any authenticated role admits a parent",
			usr:  centerUser(user.RoleParent, center7),
			req:  Requirement{AnyAuthenticated: true},
			want: Allow,
		},
		{
			name:  "disabled feature row denies",
			usr:   centerUser(user.RoleCenterStaff, center7),
			req:   Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureFinance},
			flags: center.FlagSet{center.FeatureFinance: false},
			want:  Deny(DenyFeatureDisabled),
		},
		{
			name:  "enabled feature row allows",
			usr:   centerUser(user.RoleCenterStaff, center7),
			req:   Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureFinance},
			flags: center.FlagSet{center.FeatureFinance: true},
			want:  Allow,
		},
		{
			name:  "absent flag row defaults to enabled",
			usr:   centerUser(user.RoleCenterStaff, center7),
			req:   Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureHomework},
			flags: center.FlagSet{center.FeatureFinance: false},
			want:  Allow,
		},
		{
			name: "nil flag set enables everything",
			usr:  centerUser(user.RoleTeacher, center7),
			req:  Requirement{Role: user.RoleTeacher, Feature: center.FeatureLessonPlans},
			want: Allow,
		},
		{
			name:  "unknown feature name fails open",
			usr:   centerUser(user.RoleCenterStaff, center7),
			req:   Requirement{Role: user.RoleCenterStaff, Feature: "crystal_ball"},
			flags: center.FlagSet{center.FeatureFinance: false},
			want:  Allow,
		},
		{
			name:  "role mismatch wins over feature gate",
			usr:   centerUser(user.RoleParent, center7),
			req:   Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureFinance},
			flags: center.FlagSet{center.FeatureFinance: false},
			want:  Deny(DenyWrongRole),
		},
		{
			name:  "admin without center skips feature gate",
			usr:   adminUser(),
			req:   Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureFinance},
			flags: center.FlagSet{center.FeatureFinance: false},
			want:  Allow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.usr, tt.req, tt.flags))
		})
	}
}

// Toggling a flag off then back on restores the original decision.
func TestAuthorizeToggleRoundTrip(t *testing.T) {
	usr := centerUser(user.RoleCenterStaff, "center-7")
	req := Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureFinance}

	flags := center.NewFlagSet([]center.FeatureFlag{
		{CenterID: "center-7", Feature: center.FeatureFinance, Enabled: false},
	})
	assert.Equal(t, Deny(DenyFeatureDisabled), Authorize(usr, req, flags))

	flags = center.NewFlagSet([]center.FeatureFlag{
		{CenterID: "center-7", Feature: center.FeatureFinance, Enabled: true},
	})
	assert.Equal(t, Allow, Authorize(usr, req, flags))
}
