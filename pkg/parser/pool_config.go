package parser

import (
	"github.com/gnana997/vuestories/pkg/util"
)

// getPoolSize returns the number of parsers kept per language. It matches
// the build worker pool so workers never wait on a parser; a positive
// override wins.
func getPoolSize(override int) int {
	return util.GetOptimalPoolSizeWithOverride(override)
}
