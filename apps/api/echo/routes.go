package echoapi

import (
	"strings"

	"github.com/tachera/mlango/core/access"
	"github.com/tachera/mlango/core/center"
	"github.com/tachera/mlango/core/user"
)

// Protected page routes and their access requirements, most specific prefix
// first. Each path is declared exactly once; the strict role-based
// requirement wins over any looser variant.
var pageRoutes = []struct {
	Path string
	Req  access.Requirement
}{
	// admin portal
	{"/admin", access.Requirement{Role: user.RoleAdmin}},

	// center staff portal; feature-gated sections
	{"/center/attendance", access.Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureAttendance}},
	{"/center/lesson-plans", access.Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureLessonPlans}},
	{"/center/homework", access.Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureHomework}},
	{"/center/activities", access.Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureActivities}},
	{"/center/discipline", access.Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureDiscipline}},
	{"/center/tests", access.Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureTests}},
	{"/center/finance", access.Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureFinance}},
	{"/center/reports", access.Requirement{Role: user.RoleCenterStaff, Feature: center.FeatureReports}},
	{"/center", access.Requirement{Role: user.RoleCenterStaff}},

	// teacher portal
	{"/teacher/attendance", access.Requirement{Role: user.RoleTeacher, Feature: center.FeatureAttendance}},
	{"/teacher/lesson-plans", access.Requirement{Role: user.RoleTeacher, Feature: center.FeatureLessonPlans}},
	{"/teacher/homework", access.Requirement{Role: user.RoleTeacher, Feature: center.FeatureHomework}},
	{"/teacher/tests", access.Requirement{Role: user.RoleTeacher, Feature: center.FeatureTests}},
	{"/teacher", access.Requirement{Role: user.RoleTeacher}},

	// parent portal
	{"/parent/homework", access.Requirement{Role: user.RoleParent, Feature: center.FeatureHomework}},
	{"/parent/activities", access.Requirement{Role: user.RoleParent, Feature: center.FeatureActivities}},
	{"/parent", access.Requirement{Role: user.RoleParent}},

	// any signed-in account
	{"/dashboard", access.Requirement{AnyAuthenticated: true}},
}

const (
	homeRoute        = "/"
	generalLoginPath = "/login"
	parentLoginPath  = "/parent/login"
)

// loginPrefixes maps path prefixes to their login route; anything unlisted
// uses the general login route. The choice depends only on the attempted
// path, never on prior state.
var loginPrefixes = []struct {
	Prefix string
	Login  string
}{
	{"/parent", parentLoginPath},
}

func loginRouteFor(path string) string {
	for _, m := range loginPrefixes {
		if strings.HasPrefix(path, m.Prefix) {
			return m.Login
		}
	}
	return generalLoginPath
}
