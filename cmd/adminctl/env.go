package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/challan-admin/challan-admin/internal/auth"
	"github.com/challan-admin/challan-admin/internal/platform/db"
	"github.com/challan-admin/challan-admin/internal/remote"
)

// AdminCreator stores new admin accounts.
type AdminCreator interface {
	CreateAdmin(ctx context.Context, username, password string) (*auth.Admin, error)
}

// env carries the collaborators commands run against.
type env struct {
	in       io.Reader
	out      io.Writer
	pageSize int
	remote   func() (*remote.Client, error)
	admins   func(ctx context.Context) (AdminCreator, func(), error)
}

func productionEnv(cfg cliConfig) env {
	return env{
		in:       os.Stdin,
		out:      os.Stdout,
		pageSize: cfg.ListPageSize,
		remote: func() (*remote.Client, error) {
			if cfg.RemoteTokenSecret == "" {
				return nil, errors.New("REMOTE_TOKEN_SECRET must be set")
			}
			return remote.NewClient(remote.Config{BaseURL: cfg.APIURL, TokenSecret: cfg.RemoteTokenSecret}), nil
		},
		admins: func(ctx context.Context) (AdminCreator, func(), error) {
			pool, err := db.New(ctx, cfg.PGDSN)
			if err != nil {
				return nil, nil, err
			}
			if err := db.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			return auth.NewService(auth.NewRepository(pool)), pool.Close, nil
		},
	}
}
