package main

import (
	"context"
	"fmt"

	"github.com/tachera/mlango/core/center"
)

// toggleFeature signs the acting admin in and toggles a center feature.
// Authorization happens in the center service against the stored account,
// exactly as it does for the HTTP surface.
func (cli *commandLine) toggleFeature(uname, pwd, centerID, feature string, enabled bool) error {
	ctx := context.Background()

	usr, err := cli.sessions.SignIn(ctx, uname, pwd)
	if err != nil {
		return err
	}
	defer cli.sessions.SignOut()

	if err = cli.centerSvc.Toggle(ctx, usr.ID, centerID, center.Feature(feature), enabled); err != nil {
		return err
	}
	fmt.Printf("feature %q for center %s set to enabled=%t\n", feature, centerID, enabled)
	return nil
}
