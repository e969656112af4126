package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/tachera/mlango/core"
	"github.com/tachera/mlango/core/center"
	"github.com/tachera/mlango/core/session"
	"github.com/tachera/mlango/core/user"
	emailsvc "github.com/tachera/mlango/services/email"
	logsvc "github.com/tachera/mlango/services/logger"
	dummydb "github.com/tachera/mlango/storage/database/dummy"
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	conf := &core.Config{
		TestMode:         true,
		Env:              "TEST",
		AppName:          "Mlango",
		SecretKey:        "59a3d1a0807b4d09a6dee4f8a726c73a",
		SignInRateLimit:  5,
		SignInRateWindow: time.Minute,
	}
	user.InitTokenGenerator(conf)

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}

	usrSvc := user.NewService(dummydb.NewUserRepository(db), emailsvc.NewConsoleServiceMock(conf), conf)
	centerSvc := center.NewService(dummydb.NewCenterRepository(db), usrSvc, nil /* cache */, logsvc.NopLogger{})

	return &commandLine{
		usrSvc:    usrSvc,
		centerSvc: centerSvc,
		sessions:  session.NewStore(usrSvc),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotCommand string
	var gotArgs []string
	runMigrationFunc = func(db *sql.DB, command string, args ...string) error {
		gotCommand = command
		gotArgs = args
		if command == "lol" {
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand defaults to up", args: []string{"migrate"}},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErrStr != "" {
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
				return
			}
			if err != nil {
				t.Errorf("cli.run() unexpected error = %v", err)
			}
			wantCommand := "up"
			if len(tt.args) > 1 {
				wantCommand = tt.args[1]
			}
			if gotCommand != wantCommand {
				t.Errorf("command = %q, want %q", gotCommand, wantCommand)
			}
			if len(tt.args) > 2 && (len(gotArgs) == 0 || gotArgs[0] != tt.args[2]) {
				t.Errorf("args = %v, want %v", gotArgs, tt.args[2:])
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	usr, err := cli.usrSvc.Create(ctx, user.NewUser{
		Name:     "User",
		Username: "awenyi", Email: "awe@test.cd",
		Role: user.RoleAdmin, Password: "OriginalPwd##1",
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "NewPwd##1"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "NewerPwd##1"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := cli.usrSvc.GetByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetByID(): %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if errors.Cause(err) != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_toggleFeature(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	ctr, err := cli.centerSvc.Create(ctx, center.NewCenter{Name: "Sunrise Preschool"})
	if err != nil {
		t.Fatalf("creating center: %v", err)
	}
	if _, err = cli.usrSvc.Create(ctx, user.NewUser{
		Name: "Admin", Username: "admin1", Email: "admin@test.cd",
		Role: user.RoleAdmin, Password: "LongSecret##1",
	}); err != nil {
		t.Fatalf("creating admin: %v", err)
	}
	if _, err = cli.usrSvc.Create(ctx, user.NewUser{
		Name: "Teacher", Username: "teacher1", Email: "teacher@test.cd",
		Role: user.RoleTeacher, CenterID: ctr.ID, Password: "LongSecret##1",
	}); err != nil {
		t.Fatalf("creating teacher: %v", err)
	}

	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte("LongSecret##1"), nil
	}

	// an admin can disable a feature
	args := []string{"admin", "togglefeature", "-username", "admin1", "-center", ctr.ID, "-feature", "finance", "-enabled=false"}
	if err = cli.run(args); err != nil {
		t.Fatalf("cli.run(): %v", err)
	}
	flags := cli.centerSvc.FlagsForCenter(ctx, ctr.ID)
	if flags.Enabled(center.FeatureFinance) {
		t.Error("finance should be disabled")
	}

	// a non-admin is refused and the stored state is untouched
	args = []string{"admin", "togglefeature", "-username", "teacher1", "-center", ctr.ID, "-feature", "finance", "-enabled=true"}
	if err = cli.run(args); errors.Cause(err) != center.ErrUnauthorized {
		t.Errorf("cli.run() error = %v, want %v", err, center.ErrUnauthorized)
	}
	if flags = cli.centerSvc.FlagsForCenter(ctx, ctr.ID); flags.Enabled(center.FeatureFinance) {
		t.Error("finance should still be disabled")
	}

	// unknown feature is rejected
	args = []string{"admin", "togglefeature", "-username", "admin1", "-center", ctr.ID, "-feature", "astral_projection", "-enabled=true"}
	err = cli.run(args)
	var rejected *center.RejectedError
	if !errors.As(err, &rejected) {
		t.Errorf("cli.run() error = %v, want a rejection", err)
	}
}
