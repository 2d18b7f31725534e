// Package pipeline provides composable, pull-based data pipeline operators.
//
// Pipelines are lazy. No work happens until values are pulled via Collect
// or Drain. Each stage pulls from the previous stage on demand, so a slow
// sink naturally holds back the upstream stages.
//
// # Operators
//
//   - Map: transform each value
//   - Filter: keep values matching a predicate
//   - Tap: side-effect without altering the value (logging, counters)
//
// # Usage
//
//	src := pipeline.FromSlice(segments)
//	records := pipeline.Map(src, joinWords)
//	nonEmpty := pipeline.Filter(records, func(r output.Record) bool { return r.Text != "" })
//	err := pipeline.Drain(nonEmpty, sink.Emit).Run(ctx)
package pipeline
