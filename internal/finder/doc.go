// Package finder runs the concurrent proxy validation engine.
//
// A Finder owns one validation run at a time. Start seeds a work queue
// with candidates and spawns a fixed number of Workers. Each Worker pops a
// candidate, probes it and pushes the outcome to a shared result channel,
// until the queue is empty or it is told to stop. The caller polls the
// Finder for new outcomes, progress and an estimated time remaining.
//
// Typical use:
//
//	f, err := finder.New(cfg, registry)
//	if err != nil {
//		return err
//	}
//	if err := f.Start(ctx); err != nil {
//		return err
//	}
//	for !f.Done() {
//		for _, outcome := range f.DrainLastResults() {
//			fmt.Println(outcome)
//		}
//		time.Sleep(200 * time.Millisecond)
//	}
//
// Stop is cooperative: a worker finishes the probe it is running before it
// exits. Use Wait to block until every worker has returned.
package finder
