package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kilianp07/berthplan/app"
	"github.com/kilianp07/berthplan/app/plugins"
	"github.com/kilianp07/berthplan/config"
	"github.com/kilianp07/berthplan/core/assignment"
	"github.com/kilianp07/berthplan/core/ingest"
	"github.com/kilianp07/berthplan/core/model"
)

// env is what the offline subcommands share.
type env struct {
	cfg     *config.Config
	store   assignment.Store
	loc     *time.Location
	logFile io.Closer
}

func openEnv() (*env, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logFile, err := app.SetupLogging(cfg.Logging)
	if err != nil {
		return nil, err
	}
	loc, err := ingest.LoadLocation(cfg.Planning.Location)
	if err != nil {
		return nil, err
	}
	st, err := plugins.OpenStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &env{cfg: cfg, store: st, loc: loc, logFile: logFile}, nil
}

func (e *env) Close() error {
	err := e.store.Close()
	if e.logFile != nil {
		_ = e.logFile.Close()
	}
	return err
}

// version resolves "latest" and returns the version with its rows.
func (e *env) version(ctx context.Context, id string) (model.Version, error) {
	if id == "" || id == "latest" {
		vs, err := e.store.ListVersions(ctx)
		if err != nil {
			return model.Version{}, err
		}
		if len(vs) == 0 {
			return model.Version{}, &assignment.NotFoundError{VersionID: "latest"}
		}
		id = vs[0].ID
	}
	return e.store.GetVersion(ctx, id)
}

func (e *env) reference(ctx context.Context) (*model.ReferenceData, error) {
	ref, err := e.store.ReferenceData(ctx)
	if err != nil {
		return nil, err
	}
	if len(ref.Berths) == 0 {
		return nil, nil
	}
	return &ref, nil
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
