// Package pool provides NUMA-aware byte buffer pooling and a small
// generic sync.Pool wrapper, used by the TCP transport to recycle
// frame body buffers instead of allocating one per message.
// Author: momentics <momentics@gmail.com>
package pool
