package event

import (
	"bytes"
	"runtime"
	"strconv"
)

// currentGoroutineID parses the goroutine id from the stack header
// ("goroutine 123 [running]:"). Dispatch ownership follows the goroutine that
// constructed the System; submissions compare against it to decide between
// synchronous dispatch and the pending queue.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
