package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger-import/internal/config"
	"github.com/cleared-dev/ledger-import/internal/importer"
	"github.com/cleared-dev/ledger-import/internal/logging"
)

// runtime is what every import command needs: the loaded config, a logger
// on stderr and the configured importers.
type runtime struct {
	cfg      *config.Config
	log      *logrus.Logger
	registry *importer.Registry
}

func (o *rootOptions) load(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	log, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	reg, err := cfg.Registry(log)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"config": o.configPath, "importers": len(reg.All())}).Debug("configuration loaded")

	return &runtime{cfg: cfg, log: log, registry: reg}, nil
}

// match is an input file and the importer that claimed it.
type match struct {
	file     *importer.File
	importer importer.Importer
}

// identify scans paths and returns the files some importer claims. Other
// files are logged and left alone.
func (rt *runtime) identify(paths []string) ([]match, error) {
	files, err := importer.Scan(paths...)
	if err != nil {
		return nil, err
	}

	var matches []match
	for _, path := range files {
		f := importer.NewFile(path)
		imp, err := rt.registry.Identify(f)
		if err != nil {
			rt.log.WithField("file", path).Info("no importer, skipped")
			continue
		}
		rt.log.WithFields(logrus.Fields{"file": path, "importer": imp.Name()}).Debug("identified")
		matches = append(matches, match{file: f, importer: imp})
	}
	return matches, nil
}
