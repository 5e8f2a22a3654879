package simconfigs

import (
	"github.com/reusee/aggr/cmds"
	"github.com/reusee/aggr/configs"
	"github.com/reusee/aggr/simulations"
	"github.com/reusee/aggr/vars"
)

// TopologyName is one of simulations.TopologyNames.
type TopologyName string

var topologyFlag = cmds.Var[TopologyName]("-topology", "line, grid or ring")

func (Module) TopologyName(
	loader configs.Loader,
) TopologyName {
	return vars.FirstNonZero(
		*topologyFlag,
		configs.First[TopologyName](loader, "topology"),
		"line",
	)
}

// Size is the number of devices, or the side length of a grid.
type Size int

var sizeFlag = cmds.Var[Size]("-size", "number of devices")

func (Module) Size(
	loader configs.Loader,
) Size {
	return vars.FirstNonZero(
		*sizeFlag,
		configs.First[Size](loader, "size"),
		5,
	)
}

// MaxCycles bounds a simulation run.
type MaxCycles int

var maxCyclesFlag = cmds.Var[MaxCycles]("-cycles", "max simulation cycles")

func (Module) MaxCycles(
	loader configs.Loader,
) MaxCycles {
	return vars.FirstNonZero(
		*maxCyclesFlag,
		configs.First[MaxCycles](loader, "max_cycles"),
		1000,
	)
}

var orderFlag = cmds.Var[simulations.Order]("-order", "in-order, reverse or parallel")

func (Module) Order(
	loader configs.Loader,
) simulations.Order {
	return vars.FirstNonZero(
		*orderFlag,
		configs.First[simulations.Order](loader, "order"),
		simulations.InOrder,
	)
}

// Parallelism limits the rounds running at once in a parallel cycle. Zero is unlimited.
type Parallelism int

var parallelismFlag = cmds.Var[Parallelism]("-parallelism", "max concurrent rounds")

func (Module) Parallelism(
	loader configs.Loader,
) Parallelism {
	return vars.FirstNonZero(
		*parallelismFlag,
		configs.First[Parallelism](loader, "parallelism"),
	)
}

// ProgramName selects the aggregate program run by every device.
type ProgramName string

var programFlag = cmds.Var[ProgramName]("-program", "program name, see the programs command")

func (Module) ProgramName(
	loader configs.Loader,
) ProgramName {
	return vars.FirstNonZero(
		*programFlag,
		configs.First[ProgramName](loader, "program"),
		"hops",
	)
}

// Until is a starlark expression over status and cycle. Empty runs until the status is stable.
type Until string

var untilFlag = cmds.Var[Until]("-until", "stop condition in starlark")

func (Module) Until(
	loader configs.Loader,
) Until {
	return vars.FirstNonZero(
		*untilFlag,
		configs.First[Until](loader, "until"),
	)
}

// CodecName selects the wire format of messages. Empty passes values without encoding.
type CodecName string

var codecFlag = cmds.Var[CodecName]("-codec", "gob or json")

func (Module) CodecName(
	loader configs.Loader,
) CodecName {
	return vars.FirstNonZero(
		*codecFlag,
		configs.First[CodecName](loader, "codec"),
	)
}
