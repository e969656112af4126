package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/tachera/mlango/core/center"
	"github.com/tachera/mlango/core/user"
)

func TestAdminAPI_ToggleFeature(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	ctr := env.createCenter(t, "Sunrise Preschool")
	admin := env.createUser(t, "Admin", "admin1", "admin@mlango.cd", "LongSecret##1", user.RoleAdmin, "", true)
	tchr := env.createUser(t, "Teacher", "teacher1", "teacher@mlango.cd", "LongSecret##1", user.RoleTeacher, ctr.ID, true)

	adminToken := getToken(t, admin)
	teacherToken := getToken(t, tchr)

	// a token forged with admin claims for a non-admin account: the service
	// re-verifies the caller against the user store and must refuse it
	forged := tchr
	forged.Role = user.RoleAdmin
	forgedToken := getToken(t, forged)

	enabled := true
	disabled := false

	tests := []httpTest{
		{
			name:     "disable a feature",
			method:   http.MethodPost,
			path:     "/v1/admin/centers/toggle-feature",
			body:     marchallObj(t, ToggleFeatureRequest{CenterID: ctr.ID, FeatureName: "finance", IsEnabled: &disabled}),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, ToggleFeatureResponse{Success: true}),
		},
		{
			name:     "re-enable a feature",
			method:   http.MethodPost,
			path:     "/v1/admin/centers/toggle-feature",
			body:     marchallObj(t, ToggleFeatureRequest{CenterID: ctr.ID, FeatureName: "finance", IsEnabled: &enabled}),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, ToggleFeatureResponse{Success: true}),
		},
		{
			name:     "unknown feature is rejected without mutating",
			method:   http.MethodPost,
			path:     "/v1/admin/centers/toggle-feature",
			body:     marchallObj(t, ToggleFeatureRequest{CenterID: ctr.ID, FeatureName: "astral_projection", IsEnabled: &disabled}),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, ToggleFeatureResponse{Error: `unknown feature "astral_projection"`}),
		},
		{
			name:     "non-admin caller is refused",
			method:   http.MethodPost,
			path:     "/v1/admin/centers/toggle-feature",
			body:     marchallObj(t, ToggleFeatureRequest{CenterID: ctr.ID, FeatureName: "finance", IsEnabled: &disabled}),
			token:    teacherToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "forged admin claims are refused",
			method:   http.MethodPost,
			path:     "/v1/admin/centers/toggle-feature",
			body:     marchallObj(t, ToggleFeatureRequest{CenterID: ctr.ID, FeatureName: "finance", IsEnabled: &disabled}),
			token:    forgedToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "anonymous caller is refused",
			method:   http.MethodPost,
			path:     "/v1/admin/centers/toggle-feature",
			body:     marchallObj(t, ToggleFeatureRequest{CenterID: ctr.ID, FeatureName: "finance", IsEnabled: &disabled}),
			wantCode: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the failed toggles above left the stored state untouched
	flags, err := env.ctrRepo.GetCenterFlags(ctx, ctr.ID)
	if err != nil {
		t.Fatalf("GetCenterFlags(): %v", err)
	}
	if fs := center.NewFlagSet(flags); !fs.Enabled(center.FeatureFinance) {
		t.Error("finance should have been restored to enabled")
	}
}

func TestAdminAPI_Centers(t *testing.T) {
	env := setup(t)

	ctr := env.createCenter(t, "Hilltop Academy")
	admin := env.createUser(t, "Admin", "admin1", "admin@mlango.cd", "LongSecret##1", user.RoleAdmin, "", true)
	staff := env.createUser(t, "Staff", "staff1", "staff@mlango.cd", "LongSecret##1", user.RoleCenterStaff, ctr.ID, true)

	adminToken := getToken(t, admin)
	staffToken := getToken(t, staff)

	tests := []httpTest{
		{
			name:     "admin lists centers",
			method:   http.MethodGet,
			path:     "/v1/admin/centers",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []center.Center{ctr}),
		},
		{
			name:     "admin lists flag rows",
			method:   http.MethodGet,
			path:     "/v1/admin/centers/flags",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []center.FeatureFlag{}),
		},
		{
			name:     "non-admin cannot list centers",
			method:   http.MethodGet,
			path:     "/v1/admin/centers",
			token:    staffToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "anonymous cannot list centers",
			method:   http.MethodGet,
			path:     "/v1/admin/centers",
			wantCode: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
