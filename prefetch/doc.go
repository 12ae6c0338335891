// Package prefetch provides the bounded FIFO that decouples the batch
// producer from the consumer.
//
// The executor's producer goroutine pushes assembled batches while Run pops
// them, so up to the queue capacity of batches are prepared ahead of the
// training loop. A producer failure is recorded with CloseWithError and
// reaches the consumer only after every batch queued before it.
//
// Usage:
//
//	q := prefetch.New[*executor.Batch](2)
//	go func() {
//	    defer q.Close()
//	    for _, b := range batches {
//	        if err := q.Push(ctx, b); err != nil {
//	            return
//	        }
//	    }
//	}()
//	for {
//	    b, ok, err := q.Pop(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    consume(b)
//	}
package prefetch
