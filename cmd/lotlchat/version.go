package main

import (
	"context"
	"fmt"

	"github.com/lotl-ai/lotlchat"
)

type VersionCommand struct{}

func (c VersionCommand) Run(ctx context.Context) (err error) {
	fmt.Println(lotlchat.Version)
	return nil
}
