// Package worker contains the overdue-task scanner and the process
// supervisor that owns the pipeline's lifecycle: broker connection with
// startup retry, consumer registration, the periodic scan loop, and graceful
// shutdown.
package worker
