package aggregates

import (
	"fmt"

	"github.com/reusee/aggr/paths"
)

type ClashError struct {
	Path paths.Path
}

func (c *ClashError) Error() string {
	return fmt.Sprintf("aggregate alignment clash at path %v: "+
		"the same program point was used twice in one round, "+
		"the most likely cause is an aggregate call within a loop or a sibling call without distinct alignment", c.Path)
}

func (c *ClashError) Unwrap() error {
	return ErrAlignmentClash
}
