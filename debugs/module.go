package debugs

import (
	"github.com/reusee/aggr/logs"
	"github.com/reusee/dscope"
)

// Module provides inspection of running simulations in starlark.
type Module struct {
	dscope.Module
	Logs logs.Module
}
