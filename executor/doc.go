// Package executor drives a data-loading pipeline through its lifecycle.
//
// A Pipeline owns a reader, a decoder and a frozen augmentation graph. Build
// validates everything and starts a producer that reads samples, decodes
// and augments them on a fixed worker pool, assembles batches and pushes
// them into a bounded prefetch queue. Run pops one batch at a time.
//
//	p := executor.New(cfg, executor.WithReader(r))
//	err := p.Graph(func(b *dag.Builder) error {
//	    flip := b.Add("coin_flip", nil)
//	    img := b.Add("flip", nil, b.Source(), flip)
//	    b.Outputs(b.Add("resize", dag.Params{"resize_width": 224, "resize_height": 224}, img))
//	    return nil
//	})
//	if err := p.Build(ctx); err != nil { ... }
//	defer p.Release()
//	for b, err := range executor.NewIterator(p).All(ctx) { ... }
//
// States move Unbuilt -> Built -> Running <-> Exhausted and any state can
// move to the terminal Released.
package executor
