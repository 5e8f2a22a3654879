package simconfigs

import (
	"github.com/reusee/aggr/configs"
	"github.com/reusee/aggr/logs"
	"github.com/reusee/dscope"
)

// Module provides the settings of simulations and nodes.
// A setting is taken from the command line, then the config files, then the default.
type Module struct {
	dscope.Module
	Configs configs.Module
	Logs    logs.Module
}
