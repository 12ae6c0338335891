package executor

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/augkit/augment"
	"github.com/kbukum/augkit/batch"
	"github.com/kbukum/augkit/dag"
	"github.com/kbukum/augkit/decode"
	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/logger"
	"github.com/kbukum/augkit/observability"
	"github.com/kbukum/augkit/pipeline"
	"github.com/kbukum/augkit/prefetch"
	"github.com/kbukum/augkit/reader"
	"github.com/kbukum/augkit/tensor"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithReader sets the sample source. Required.
func WithReader(r reader.Reader) Option {
	return func(p *Pipeline) { p.reader = r }
}

// WithDecoder sets the decoder. Defaults to RGB decoding without crop.
func WithDecoder(d *decode.Decoder) Option {
	return func(p *Pipeline) { p.decoder = d }
}

// WithRegistry sets the op registry used to freeze the graph.
func WithRegistry(reg *dag.Registry) Option {
	return func(p *Pipeline) { p.registry = reg }
}

// WithLogger replaces the component logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithMetrics records pipeline metrics. Nil disables them.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithTracing wraps every graph node in a span.
func WithTracing(enabled bool) Option {
	return func(p *Pipeline) { p.tracing = enabled }
}

// WithName names the pipeline and its graph.
func WithName(name string) Option {
	return func(p *Pipeline) { p.name = name }
}

// Pipeline is a built-once, run-many data-loading pipeline. Control calls
// must be serialized by the caller.
type Pipeline struct {
	id       string
	name     string
	cfg      Config
	reader   reader.Reader
	decoder  *decode.Decoder
	registry *dag.Registry
	log      *logger.Logger
	metrics  *observability.Metrics
	tracing  bool

	mu        sync.Mutex
	state     State
	builder   *dag.Builder
	scopeOpen bool
	graph     *dag.Graph
	engine    *dag.Engine
	assembler *batch.Assembler
	seed      uint64
	epoch     int
	batches   int
	delivered int
	err       error

	queue  *prefetch.Queue[*Batch]
	cancel context.CancelFunc
	done   chan struct{}

	timing timing
}

// New creates an unbuilt pipeline.
func New(cfg Config, opts ...Option) *Pipeline {
	cfg.ApplyDefaults()
	p := &Pipeline{
		id:   uuid.NewString(),
		name: "pipeline",
		cfg:  cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get("executor")
	}
	p.log = p.log.WithPipeline(p.id)
	if p.registry == nil {
		p.registry = augment.NewRegistry()
	}
	return p
}

// ID returns the pipeline instance ID.
func (p *Pipeline) ID() string { return p.id }

// Config returns the effective configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// State returns the lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Seed returns the seed in effect. It is only meaningful after Build.
func (p *Pipeline) Seed() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seed
}

// --- Graph construction ---

// Graph runs fn against the pipeline's graph builder. It fails once the
// pipeline is built.
func (p *Pipeline) Graph(fn func(b *dag.Builder) error) error {
	b, err := p.BeginGraph()
	if err != nil {
		return err
	}
	fnErr := fn(b)
	if err := p.EndGraph(); err != nil {
		return err
	}
	return fnErr
}

// BeginGraph opens a graph construction scope and returns its builder.
// Every BeginGraph must be paired with EndGraph before Build.
func (p *Pipeline) BeginGraph() (*dag.Builder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkMutable("graph"); err != nil {
		return nil, err
	}
	if p.scopeOpen {
		return nil, errors.Configuration("graph", "a graph scope is already open")
	}
	if p.builder == nil {
		p.builder = dag.NewBuilder(p.name)
	}
	p.scopeOpen = true
	return p.builder, nil
}

// EndGraph closes the scope opened by BeginGraph.
func (p *Pipeline) EndGraph() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateReleased {
		return errors.AlreadyReleased("EndGraph")
	}
	if !p.scopeOpen {
		return errors.Configuration("graph", "no graph scope is open")
	}
	p.scopeOpen = false
	return nil
}

// SetGraph appends a loaded graph definition, typically from YAML.
func (p *Pipeline) SetGraph(def *dag.GraphDef) error {
	return p.Graph(func(b *dag.Builder) error {
		b.Merge(def)
		return nil
	})
}

func (p *Pipeline) checkMutable(op string) error {
	switch p.state {
	case StateReleased:
		return errors.AlreadyReleased(op)
	case StateUnbuilt:
		return nil
	default:
		return errors.Configuration(op, "the graph cannot change after build")
	}
}

// --- Lifecycle ---

// Build validates the configuration and graph, opens the reader and starts
// producing epoch 0. On failure the pipeline stays unbuilt.
func (p *Pipeline) Build(ctx context.Context) (err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanBuild)
	defer func() {
		observability.SetSpanError(ctx, err)
		span.End()
	}()

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.state == StateReleased:
		return errors.AlreadyReleased("Build")
	case p.state != StateUnbuilt:
		return errors.Configuration("build", "pipeline is already built")
	case p.scopeOpen:
		return errors.Configuration("graph", "graph scope is still open; call EndGraph")
	}

	if err := p.prepare(); err != nil {
		p.recordError(ctx, err)
		return err
	}

	if p.cfg.Seed != nil {
		p.seed = *p.cfg.Seed
	} else {
		p.seed = rand.Uint64()
	}
	if err := p.reader.Open(ctx, p.seed); err != nil {
		p.graph, p.assembler = nil, nil
		p.recordError(ctx, err)
		return err
	}

	p.state = StateBuilt
	p.epoch = p.reader.Epoch()
	shardID, numShards := p.reader.Shard()
	p.log.Info("pipeline built", map[string]interface{}{
		"graph":             p.graph.Name,
		"nodes":             len(p.graph.Nodes),
		"outputs":           p.graph.Outputs,
		"batch_size":        p.cfg.BatchSize,
		"num_threads":       p.cfg.NumThreads,
		"prefetch":          p.cfg.PrefetchQueueDepth,
		"samples":           p.reader.Len(),
		"seed":              p.seed,
		logger.FieldShardID: fmt.Sprintf("%d/%d", shardID, numShards),
	})
	p.startEpoch(ctx)
	return nil
}

// prepare validates everything Build needs without side effects on the
// reader.
func (p *Pipeline) prepare() error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}
	if p.reader == nil {
		return errors.Configuration("reader", "a reader is required")
	}
	if p.decoder == nil {
		d, err := decode.New(decode.Config{})
		if err != nil {
			return err
		}
		p.decoder = d
	}
	if err := p.checkShards(); err != nil {
		return err
	}
	if p.builder == nil {
		return errors.Configuration("graph", "no augmentation graph defined")
	}

	dtype, err := tensor.ParseDType(p.cfg.TensorDType)
	if err != nil {
		return errors.Configuration("tensor_dtype", err.Error())
	}
	layout, err := tensor.ParseLayout(p.cfg.TensorLayout)
	if err != nil {
		return errors.Configuration("tensor_layout", err.Error())
	}
	policy, err := batch.ParsePolicy(p.cfg.LastBatchPolicy)
	if err != nil {
		return errors.Configuration("last_batch_policy", err.Error())
	}

	g, err := dag.Freeze(p.builder.Definition(), p.registry, dag.FreezeOptions{DType: dtype, Layout: layout})
	if err != nil {
		return err
	}
	nodeLog := logger.Get("dag").WithPipeline(p.id)
	g.Decorate(func(n dag.Node) dag.Node {
		n = dag.WithLogging(n, nodeLog)
		if p.metrics != nil {
			n = dag.WithMetrics(n, p.metrics)
		}
		if p.tracing {
			n = dag.WithTracing(n, observability.SpanAugment)
		}
		return n
	})

	p.graph = g
	p.engine = &dag.Engine{}
	p.assembler = &batch.Assembler{
		BatchSize:   p.cfg.BatchSize,
		DType:       dtype,
		Layout:      layout,
		Policy:      policy,
		NumClasses:  p.cfg.OneHotClasses,
		OutputNames: g.Outputs,
	}
	return nil
}

// checkShards rejects decoder shard parameters that disagree with the reader.
func (p *Pipeline) checkShards() error {
	dc := p.decoder.Config()
	if dc.NumShards == 0 {
		return nil
	}
	shardID, numShards := p.reader.Shard()
	if dc.ShardID != shardID || dc.NumShards != numShards {
		return errors.Configuration("decode.shard_id", fmt.Sprintf(
			"decoder shard %d/%d differs from reader shard %d/%d", dc.ShardID, dc.NumShards, shardID, numShards))
	}
	return nil
}

// Run returns the next batch. ok is false at the end of the epoch, which
// repeats until Reset.
func (p *Pipeline) Run(ctx context.Context) (b *Batch, ok bool, err error) {
	p.mu.Lock()
	switch p.state {
	case StateReleased:
		p.mu.Unlock()
		return nil, false, errors.AlreadyReleased("Run")
	case StateUnbuilt:
		p.mu.Unlock()
		return nil, false, errors.Configuration("run", "pipeline is not built")
	case StateExhausted:
		p.mu.Unlock()
		return nil, false, nil
	}
	if p.err != nil {
		err := p.err
		p.mu.Unlock()
		return nil, false, err
	}
	q := p.queue
	p.mu.Unlock()

	start := time.Now()
	b, ok, err = q.Pop(ctx)
	wait := time.Since(start)
	p.timing.wait.Add(int64(wait))

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateReleased || q != p.queue {
		// Released or reset while waiting.
		if p.state == StateReleased {
			return nil, false, errors.AlreadyReleased("Run")
		}
		return nil, false, errors.Configuration("run", "pipeline was reset during Run")
	}

	switch {
	case err != nil && ctx.Err() != nil:
		return nil, false, err
	case err != nil:
		p.err = err
		p.recordError(ctx, err)
		p.log.Error("epoch aborted", logger.MergeWithError(map[string]interface{}{
			logger.FieldEpoch: p.epoch,
		}, err))
		p.stopProducer()
		return nil, false, err
	case !ok:
		p.state = StateExhausted
		p.delivered = p.reader.Len()
		p.log.Info("epoch exhausted", map[string]interface{}{
			logger.FieldEpoch: p.epoch,
			"batches":         p.batches,
		})
		return nil, false, nil
	}

	p.state = StateRunning
	p.batches++
	p.delivered += b.Size() - b.Padded
	p.metrics.RecordBatch(ctx, p.id, b.Padded, wait)
	p.metrics.RecordPrefetchLevel(ctx, p.id, q.Level())
	return b, true, nil
}

// Reset stops the current epoch, rewinds the reader and starts the next
// epoch. Buffered batches of the old epoch are discarded.
func (p *Pipeline) Reset(ctx context.Context) (err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanReset)
	defer func() {
		observability.SetSpanError(ctx, err)
		span.End()
	}()

	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateReleased:
		return errors.AlreadyReleased("Reset")
	case StateUnbuilt:
		return errors.Configuration("reset", "pipeline is not built")
	}

	dropped := p.stopProducer()
	if err := p.reader.Reset(ctx); err != nil {
		p.err = err
		p.recordError(ctx, err)
		return err
	}
	p.epoch = p.reader.Epoch()
	p.err = nil
	p.batches = 0
	p.delivered = 0
	p.state = StateRunning
	p.log.Info("pipeline reset", map[string]interface{}{
		logger.FieldEpoch: p.epoch,
		"dropped":         dropped,
	})
	p.startEpoch(ctx)
	return nil
}

// Release stops production and closes the reader. Every later call fails
// with AlreadyReleasedError; Release itself may be called again.
func (p *Pipeline) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateReleased {
		return nil
	}
	wasBuilt := p.state != StateUnbuilt
	p.stopProducer()
	p.state = StateReleased
	p.graph, p.assembler, p.queue = nil, nil, nil
	var err error
	if wasBuilt {
		err = p.reader.Close()
	}
	p.log.Info("pipeline released", map[string]interface{}{logger.FieldEpoch: p.epoch})
	return err
}

// Len returns the number of samples in the reader's shard.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateUnbuilt || p.state == StateReleased {
		return 0
	}
	return p.reader.Len()
}

// Epoch returns the current epoch.
func (p *Pipeline) Epoch() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epoch
}

// RemainingSamples returns how many samples of the shard have not been
// delivered in the current epoch.
func (p *Pipeline) RemainingSamples() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateUnbuilt || p.state == StateReleased {
		return 0
	}
	return max(0, p.reader.Len()-p.delivered)
}

// Timing returns cumulative stage durations since Build.
func (p *Pipeline) Timing() Timing { return p.timing.snapshot() }

// --- Producer ---

// startEpoch launches the producer for the current epoch. Callers hold mu.
func (p *Pipeline) startEpoch(ctx context.Context) {
	prodCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	prodCtx = logger.ContextWithPipeline(prodCtx, p.id, p.epoch)
	q := prefetch.New[*Batch](p.cfg.PrefetchQueueDepth)
	done := make(chan struct{})
	p.queue, p.cancel, p.done = q, cancel, done

	w := &worker{
		p:         p,
		seed:      p.seed,
		epoch:     p.epoch,
		graph:     p.graph,
		assembler: p.assembler,
		queue:     q,
		log:       p.log.WithContext(prodCtx),
	}
	go func() {
		defer close(done)
		w.run(prodCtx)
	}()
}

// stopProducer cancels and joins the producer, then drains its queue.
// Callers hold mu.
func (p *Pipeline) stopProducer() int {
	if p.cancel == nil {
		return 0
	}
	p.cancel()
	<-p.done
	dropped := p.queue.Drain()
	p.cancel, p.done = nil, nil
	return dropped
}

func (p *Pipeline) recordError(ctx context.Context, err error) {
	code := string(errors.ErrCodeInternal)
	if app, ok := errors.AsAppError(err); ok {
		code = string(app.Code)
	}
	p.metrics.RecordError(ctx, code, "executor")
}

// sampleResult is one processed sample, or the decode error that replaced it.
type sampleResult struct {
	item      batch.Item
	sample    reader.Sample
	decodeErr error
}

type worker struct {
	p         *Pipeline
	seed      uint64
	epoch     int
	graph     *dag.Graph
	assembler *batch.Assembler
	queue     *prefetch.Queue[*Batch]
	log       *logger.Logger
}

func (w *worker) run(ctx context.Context) {
	ctx, span := observability.StartSpan(ctx, observability.SpanEpoch)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrPipelineID, w.p.id)
	observability.SetSpanAttribute(ctx, observability.AttrEpoch, w.epoch)
	start := time.Now()
	w.log.Info("epoch started", map[string]interface{}{logger.FieldEpoch: w.epoch})

	samples := pipeline.FromFunc(func(context.Context) pipeline.Iterator[reader.Sample] {
		return &readerIter{r: w.p.reader, timing: &w.p.timing}
	})
	processed := pipeline.Parallel(samples, w.p.cfg.NumThreads, w.process)
	items := pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[batch.Item] {
		return &substituteIter{source: processed.Iter(ctx), log: w.log}
	})
	index := 0
	err := pipeline.ForEach(ctx, pipeline.Chunk(items, w.p.cfg.BatchSize), func(ctx context.Context, chunk []batch.Item) error {
		assembled, err := w.assembler.Assemble(chunk)
		if err != nil || assembled == nil {
			return err
		}
		b := &Batch{
			Tensors: assembled.Tensors,
			Outputs: w.graph.Outputs,
			Labels:  assembled.Labels,
			OneHot:  assembled.OneHot,
			Padded:  assembled.Padded,
			Indices: assembled.Indices,
			Keys:    assembled.Keys,
			Epoch:   w.epoch,
			Index:   index,
		}
		index++
		return w.queue.Push(ctx, b)
	})

	if ctx.Err() != nil {
		w.queue.Close()
		return
	}
	if err != nil {
		err = asFatal(err)
		observability.SetSpanError(ctx, err)
		w.log.Error("epoch failed", logger.MergeWithError(map[string]interface{}{logger.FieldEpoch: w.epoch}, err))
		w.queue.CloseWithError(err)
		return
	}
	w.queue.Close()
	w.log.Info("epoch produced", map[string]interface{}{
		logger.FieldEpoch:    w.epoch,
		"batches":            index,
		logger.FieldDuration: time.Since(start).Milliseconds(),
	})
}

// process decodes and augments one sample. Decode errors under the skip
// policy become a sampleResult for substitution; any other error is fatal.
func (w *worker) process(ctx context.Context, s reader.Sample) (sampleResult, error) {
	start := time.Now()
	arr, err := w.p.decoder.Decode(ctx, s, dag.SampleRNG(w.seed, s.Index, "decode"))
	w.p.timing.decode.Add(int64(time.Since(start)))
	if err != nil {
		if errors.IsDecode(err) && w.p.cfg.OnDecodeError == OnDecodeErrorSkip {
			w.p.metrics.RecordDecodeError(ctx, w.p.id, true)
			return sampleResult{sample: s, decodeErr: err}, nil
		}
		w.p.metrics.RecordDecodeError(ctx, w.p.id, false)
		return sampleResult{}, err
	}

	start = time.Now()
	res, err := w.p.engine.Execute(ctx, w.graph, dag.NewState(w.seed, s.Index, dag.ArrayValue(arr)))
	w.p.timing.process.Add(int64(time.Since(start)))
	if err != nil {
		w.p.metrics.RecordSample(ctx, w.p.id, "failed")
		return sampleResult{}, err
	}
	outputs := make([]*tensor.Array, len(res.Outputs))
	for i, v := range res.Outputs {
		outputs[i] = v.Array
	}
	w.p.metrics.RecordSample(ctx, w.p.id, "completed")
	return sampleResult{
		sample: s,
		item:   batch.Item{Outputs: outputs, Label: s.Label, Index: s.Index, Key: s.Key},
	}, nil
}

// asFatal converts producer failures into AppErrors.
func asFatal(err error) error {
	var pe *pipeline.PanicError
	if stderrors.As(err, &pe) {
		return errors.Internal(err).WithDetail("stack", string(pe.Stack))
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	return errors.Internal(err)
}

// readerIter adapts a Reader to the pipeline iterator protocol.
type readerIter struct {
	r      reader.Reader
	timing *timing
}

func (it *readerIter) Next(ctx context.Context) (reader.Sample, bool, error) {
	start := time.Now()
	s, ok, err := it.r.Next(ctx)
	it.timing.load.Add(int64(time.Since(start)))
	return s, ok, err
}

func (it *readerIter) Close() error { return nil }

// substituteIter replaces samples that failed to decode with the nearest
// successful sample: the previous one, or the next one when no sample has
// succeeded yet. An epoch without any successful sample fails with the
// first decode error.
type substituteIter struct {
	source  pipeline.Iterator[sampleResult]
	last    *batch.Item
	backlog []sampleResult
	ready   []batch.Item
	log     *logger.Logger
}

func (it *substituteIter) Next(ctx context.Context) (batch.Item, bool, error) {
	for len(it.ready) == 0 {
		r, ok, err := it.source.Next(ctx)
		if err != nil {
			return batch.Item{}, false, err
		}
		if !ok {
			if len(it.backlog) > 0 {
				return batch.Item{}, false, it.backlog[0].decodeErr
			}
			return batch.Item{}, false, nil
		}
		if r.decodeErr != nil {
			if it.last != nil {
				it.ready = append(it.ready, it.substitute(*it.last, r))
			} else {
				it.backlog = append(it.backlog, r)
			}
			continue
		}
		for _, failed := range it.backlog {
			it.ready = append(it.ready, it.substitute(r.item, failed))
		}
		it.backlog = nil
		item := r.item
		it.last = &item
		it.ready = append(it.ready, item)
	}
	item := it.ready[0]
	it.ready = it.ready[1:]
	return item, true, nil
}

func (it *substituteIter) substitute(good batch.Item, failed sampleResult) batch.Item {
	it.log.Warn("substituting undecodable sample", map[string]interface{}{
		logger.FieldSample: failed.sample.Key,
		"substitute":       good.Key,
		logger.FieldError:  failed.decodeErr.Error(),
	})
	return good
}

func (it *substituteIter) Close() error { return it.source.Close() }
