// Package repository implements replay nonce persistence.
//
// A replay nonce is the request id of an accepted replay tuple, kept until the tuple's
// timestamp leaves the replay window. Three implementations are provided:
//   - Memory: a process-local map, suitable for a single instance
//   - PostgreSQL and MySQL: a replay_nonces table with a unique request_id, shared by
//     every instance behind a load balancer
package repository
