package worker

import (
	"context"
	"strings"
	"time"

	"pdfstream/internal/queue"
)

// ProcessorConfig bounds each outbound call a job makes.
type ProcessorConfig struct {
	Collection   string
	FetchTimeout time.Duration
	EmbedTimeout time.Duration
	StoreTimeout time.Duration
}

// Processor runs a single job through extract -> embed -> store. It holds no
// per-job state; one instance is shared by the whole pool.
type Processor struct {
	fetcher   Fetcher
	extractor Extractor
	embedder  Embedder
	store     VectorStore
	cfg       ProcessorConfig
}

func NewProcessor(f Fetcher, x Extractor, e Embedder, s VectorStore, cfg ProcessorConfig) *Processor {
	return &Processor{fetcher: f, extractor: x, embedder: e, store: s, cfg: cfg}
}

// Process mutates job.ExtractedText in place when it extracts lazily, so the
// caller can persist the pages before a retry. The returned error carries
// the failing stage and retryability classification.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	pages := job.ExtractedText

	// Producers may attach pre-extracted text at enqueue time; extract
	// lazily only when they did not.
	if len(pages) == 0 {
		data, err := p.fetchDocument(ctx, job.DocumentRef)
		if err != nil {
			return err
		}

		pages, err = p.extractor.Extract(ctx, data)
		if err != nil {
			return &ExtractionError{Ref: job.DocumentRef, Err: err}
		}
		job.ExtractedText = pages
	}

	text := strings.TrimSpace(strings.Join(pages, " "))
	if text == "" {
		return &EmptyContentError{Ref: job.DocumentRef}
	}

	vector, err := p.embedDocument(ctx, job.DocumentRef, text)
	if err != nil {
		return err
	}

	rec := EmbeddingRecord{
		Vector:     vector,
		SourceText: text,
		Metadata: map[string]string{
			"source":   job.DocumentRef,
			"filename": job.OriginalFilename,
		},
	}
	return p.storeRecord(ctx, job.DocumentRef, rec)
}

func (p *Processor) fetchDocument(ctx context.Context, ref string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	data, err := p.fetcher.Fetch(fetchCtx, ref)
	if err != nil {
		return nil, &FetchError{Ref: ref, Err: err}
	}
	return data, nil
}

func (p *Processor) embedDocument(ctx context.Context, ref, text string) ([]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, p.cfg.EmbedTimeout)
	defer cancel()

	vector, err := p.embedder.Embed(embedCtx, text)
	if err != nil {
		return nil, &EmbeddingError{Ref: ref, Err: err}
	}
	return vector, nil
}

func (p *Processor) storeRecord(ctx context.Context, ref string, rec EmbeddingRecord) error {
	storeCtx, cancel := context.WithTimeout(ctx, p.cfg.StoreTimeout)
	defer cancel()

	if err := p.store.Store(storeCtx, rec, p.cfg.Collection); err != nil {
		return &StoreError{Ref: ref, Err: err}
	}
	return nil
}
