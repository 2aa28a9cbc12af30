package game

import (
	"math/rand"
	"sort"
)

const (
	// BoardPorts is the number of sockets on the physical board, numbered from 1.
	BoardPorts = 24

	// TargetPortCount is how many ports a player has to plug in.
	TargetPortCount = 12
)

// PortClass is the display class of a board port.
type PortClass string

const (
	PortInactive      PortClass = "inactive"
	PortReachedTarget PortClass = "reached-target"
	PortPendingTarget PortClass = "pending-target"
)

// GenerateTargetPorts draws TargetPortCount distinct ports from [1, BoardPorts]
// with a uniform shuffle. The draw order is preserved.
func GenerateTargetPorts(r *rand.Rand) []int {
	all := make([]int, BoardPorts)
	for i := range all {
		all[i] = i + 1
	}
	r.Shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})
	return all[:TargetPortCount:TargetPortCount]
}

// sortedCopy is used when logging so target sets are easy to read.
func sortedCopy(ports []int) []int {
	out := append([]int(nil), ports...)
	sort.Ints(out)
	return out
}
