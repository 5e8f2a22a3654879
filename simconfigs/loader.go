package simconfigs

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/reusee/aggr/cmds"
	"github.com/reusee/aggr/configs"
	"github.com/reusee/aggr/logs"
	"github.com/reusee/aggr/modes"
)

//go:embed schema.cue
var Schema string

var configFlag = cmds.Collect[string]("-config", "config file, before the found ones")

var filenames = []string{
	"aggr.cue",
	".aggr.cue",
}

func (Module) ConfigsLoader(
	logger logs.Logger,
	mode modes.Mode,
) configs.Loader {
	paths := append([]string(nil), *configFlag...)

	// found files are not used by tests
	if mode != modes.ModeDevelopment {
		var dirs []string
		if workingDir, err := os.Getwd(); err == nil {
			dirs = append(dirs, workingDir)
		}
		if configDir, err := os.UserConfigDir(); err == nil {
			dirs = append(dirs, configDir)
		}
		dirs = append(dirs, "/etc")
		for _, dir := range dirs {
			for _, filename := range filenames {
				path := filepath.Join(dir, filename)
				if _, err := os.Stat(path); err == nil {
					paths = append(paths, path)
				}
			}
		}
	}

	if len(paths) > 0 {
		logger.Info("config file", "paths", paths)
	}
	return configs.NewLoader(paths, Schema)
}
