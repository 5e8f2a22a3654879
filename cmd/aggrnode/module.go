package main

import (
	"github.com/reusee/aggr/nets"
	"github.com/reusee/aggr/simconfigs"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	Configs simconfigs.Module
	Nets    nets.Module
}
