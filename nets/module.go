package nets

import (
	"github.com/reusee/aggr/configs"
	"github.com/reusee/aggr/logs"
	"github.com/reusee/dscope"
)

// Module provides dialing for device peers.
type Module struct {
	dscope.Module
	Configs configs.Module
	Logs    logs.Module
}
