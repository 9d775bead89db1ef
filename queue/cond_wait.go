// File: queue/cond_wait.go
// License: Apache-2.0

package queue

import (
	"sync"
	"time"
)

// waitOrTimeout blocks on c.Wait() but guarantees the caller is woken
// within d even if nothing ever signals the condition. sync.Cond has no
// native timed wait; arming a timer that broadcasts is the standard
// workaround. The caller's loop re-checks its own deadline on wakeup.
func waitOrTimeout(c *sync.Cond, d time.Duration) {
	timer := time.AfterFunc(d, func() {
		c.L.Lock()
		c.Broadcast()
		c.L.Unlock()
	})
	defer timer.Stop()
	c.Wait()
}
