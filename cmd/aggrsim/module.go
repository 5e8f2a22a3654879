package main

import (
	"github.com/reusee/aggr/debugs"
	"github.com/reusee/aggr/simconfigs"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	Configs simconfigs.Module
	Debugs  debugs.Module
}
