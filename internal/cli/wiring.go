package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/mstanton/mend/internal/config"
	"github.com/mstanton/mend/internal/db"
	"github.com/mstanton/mend/internal/generate"
	"github.com/mstanton/mend/internal/gitops"
	"github.com/mstanton/mend/internal/guard"
	"github.com/mstanton/mend/internal/locate"
	"github.com/mstanton/mend/internal/loop"
	"github.com/mstanton/mend/internal/maven"
	"github.com/mstanton/mend/internal/probe"
	"github.com/mstanton/mend/internal/report"
	"github.com/mstanton/mend/internal/workflow"
)

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.LoadDefault()
}

// loadValidConfig loads the config and refuses to proceed on validation
// errors.
func loadValidConfig() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			fmt.Printf("  - %s\n", e)
		}
		return nil, fmt.Errorf("config has %d validation error(s)", len(errs))
	}
	return cfg, nil
}

// openLedger opens and migrates the audit ledger.
func openLedger() (*db.DB, error) {
	path := dbPath
	if path == "" {
		var err error
		if path, err = db.DefaultDBPath(); err != nil {
			return nil, err
		}
	}
	d, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// reportPath resolves a report location relative to the project directory.
func reportPath(cfg *config.Config, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.Project.Dir, p)
}

func newProbe(cfg *config.Config) *probe.Probe {
	runner := maven.NewRunner(&maven.ExecRunner{}, cfg.Project.Dir, cfg.Build.Command, cfg.BuildTimeout(20*time.Minute))
	tests := report.NewSurefireReader(reportPath(cfg, cfg.Reports.SurefireDir))
	coverage := report.NewJacocoReader(reportPath(cfg, cfg.Reports.JacocoReport))
	return probe.New(runner, tests, coverage)
}

// newEngine wires the full loop from config. ledger may be nil; progress
// receives human-readable per-pass output.
func newEngine(cfg *config.Config, ledger *db.DB, progress io.Writer) *loop.Engine {
	git := gitops.NewClient(&gitops.ExecGit{}, &gitops.ExecGh{}, cfg.Project.Dir, cfg.Git.Remote, cfg.Git.PushRetries)
	gen := generate.NewExecGenerator(cfg.Generator.Command, cfg.Project.Dir, cfg.GeneratorTimeout(10*time.Minute))
	exec := workflow.NewExecutor(locate.NewLocator(cfg.Project.Dir), workflow.OSStore{}, gen, git, cfg.Project.Dir)
	exec.SetProgress(progress)
	g := guard.New(cfg.Guard.MaxPasses, cfg.Guard.StagnationThreshold)

	engine := loop.New(newProbe(cfg), exec, g, git, ledger, loop.Options{
		CreatePR:   cfg.Git.CreatePR,
		BaseBranch: cfg.Git.BaseBranch,
		PRTitle:    cfg.Git.PRTitle,
	})
	engine.SetProgress(progress)
	return engine
}
