package configs

import (
	"github.com/reusee/dscope"
)

// Module is included by modules depending on a Loader, which the application scope provides.
type Module struct {
	dscope.Module
}
