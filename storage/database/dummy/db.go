// Package dummydb is an in-memory stand-in for the Postgres storage,
// used by tests and local experiments.
package dummydb

import (
	"sync"

	"github.com/tachera/mlango/core/center"
	"github.com/tachera/mlango/core/user"
)

type (
	DB struct {
		user   *userTable
		center *centerTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	centerTable struct {
		sync.RWMutex
		table map[string]*center.Center
		flags map[flagKey]bool
	}

	flagKey struct {
		centerID string
		feature  center.Feature
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		center: &centerTable{
			table: make(map[string]*center.Center),
			flags: make(map[flagKey]bool),
		},
	}
	return db, nil
}
