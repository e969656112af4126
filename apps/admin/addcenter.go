package main

import (
	"context"
	"fmt"

	"github.com/tachera/mlango/core/center"
)

func (cli *commandLine) addCenter(name string) error {
	ctr, err := cli.centerSvc.Create(context.Background(), center.NewCenter{Name: name})
	if err != nil {
		return err
	}
	fmt.Printf("center %q registered with id %s\n", ctr.Name, ctr.ID)
	return nil
}
