package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/tachera/mlango/core/center"
	"github.com/tachera/mlango/core/session"
	"github.com/tachera/mlango/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sql.DB
	usrSvc    *user.Service
	centerSvc *center.Service
	sessions  *session.Store
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate [up|down|status|...] - run database migrations")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-admin] [-center CENTER_ID] [-role ROLE] - add or update a user")
	fmt.Println("  addcenter -name NAME - register a new center")
	fmt.Println("  togglefeature -username USERNAME|EMAIL -center CENTER_ID -feature FEATURE -enabled true|false - toggle a center feature")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Make the user an admin.")
	addUserCenter := addUserCmd.String("center", "", "The center the user belongs to.")
	addUserRole := addUserCmd.String("role", "", "The user's role: center_staff, teacher or parent.")

	addCenterCmd := flag.NewFlagSet("addcenter", flag.ExitOnError)
	addCenterName := addCenterCmd.String("name", "", "The center's name.")

	toggleCmd := flag.NewFlagSet("togglefeature", flag.ExitOnError)
	toggleUname := toggleCmd.String("username", "", "The acting admin's username or email. The password will be prompted next.")
	toggleCenter := toggleCmd.String("center", "", "The center to toggle the feature for.")
	toggleFeature := toggleCmd.String("feature", "", "The feature to toggle.")
	toggleEnabled := toggleCmd.Bool("enabled", false, "Whether the feature should be enabled.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				addUserCmd.Usage()
			}
			return err
		}
		return cli.addUser(*addUserUname, *addUserEmail, pwd, *addUserAdmin, *addUserCenter, *addUserRole)
	case "addcenter":
		if err := addCenterCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addCenterName == "" {
			addCenterCmd.Usage()
			return errHelp
		}
		return cli.addCenter(*addCenterName)
	case "togglefeature":
		if err := toggleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *toggleUname == "" || *toggleCenter == "" || *toggleFeature == "" {
			toggleCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				toggleCmd.Usage()
			}
			return err
		}
		return cli.toggleFeature(*toggleUname, pwd, *toggleCenter, *toggleFeature, *toggleEnabled)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}
	return string(pwd), nil
}
