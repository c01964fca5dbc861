// Package schedule implements the recurring task generation engine: a cron
// evaluator bound to the organization's timezone, a materializer that turns
// one due template into one ticket plus its audit record, and a scheduler
// loop that drives materialization once per tick with per-template failure
// isolation.
//
// The engine assumes a single active scheduler process. Nothing here
// prevents duplicate generation across replicas; deployments running more
// than one instance must designate exactly one as the scheduler.
package schedule
