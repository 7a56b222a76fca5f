// Package worker runs password derivations on a pool of background
// goroutines and delivers each result asynchronously to its requester.
package worker
