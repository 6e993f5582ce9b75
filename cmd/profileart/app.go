package main

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/youruser/profileart/internal/config"
	"github.com/youruser/profileart/internal/decoration"
	"github.com/youruser/profileart/internal/github"
	imagepkg "github.com/youruser/profileart/internal/image"
	"github.com/youruser/profileart/internal/policy"
	"github.com/youruser/profileart/internal/storage"
	"github.com/youruser/profileart/internal/table"
)

// app wires the components every command shares.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	bucket     storage.Bucket
	gh         *github.Client
	policies   *policy.Table
	loader     *decoration.Loader
	gate       *decoration.Gate
	compositor *imagepkg.Compositor
	table      *table.Builder
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	bucket, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	gh := github.New(cfg.GitHub)
	policies, err := decoration.LoadPolicies(ctx, bucket, policy.Deps{Graph: gh, Owner: cfg.Owner, Repo: cfg.Repo})
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:        cfg,
		logger:     slog.Default(),
		bucket:     bucket,
		gh:         gh,
		policies:   policies,
		loader:     decoration.NewLoader(bucket, policies),
		gate:       decoration.NewGate(policies),
		compositor: imagepkg.NewCompositor(bucket),
		table: table.NewBuilder(policies, table.Config{
			Owner:     cfg.Owner,
			Repo:      cfg.Repo,
			WebURL:    cfg.GitHub.WebURL,
			AssetBase: assetBase(cfg.Storage),
		}),
	}, nil
}

// assetBase is the path example images are linked under in the table. A
// local bucket links relative to the repository, anything else uses the
// default directory name.
func assetBase(s config.StorageConfig) string {
	if s.Driver == string(storage.DriverFilesystem) && s.Root != "" && !filepath.IsAbs(s.Root) {
		return path.Clean(filepath.ToSlash(s.Root))
	}
	return table.DefaultAssetBase
}
