// Package retriever implements C10: the fan-out RAG subsystem. Every
// dealt card gets three parallel searches; the spread method gets four;
// cross-card relationships get a variable set. A process-wide semaphore
// caps concurrent vector searches, a failed single query is treated as
// zero hits, and results are deduplicated by chunk id keeping the highest
// similarity.
package retriever

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// maxConcurrentSearches caps in-flight vector searches across the whole
// process, protecting the downstream store from a wide fan-out.
const maxConcurrentSearches = 10

// searchSem is shared by every Retriever in the process.
var searchSem = semaphore.NewWeighted(maxConcurrentSearches)

// Searcher is the search primitive the retriever fans out over;
// rag.RagIndex satisfies it.
type Searcher interface {
	Search(ctx context.Context, queryText string, k int, minSim float64) ([]models.ScoredChunk, error)
}

// QueryRecord is the audit trail of one executed search.
type QueryRecord struct {
	Query         string  `json:"query"`
	Type          string  `json:"type"`
	TopK          int     `json:"top_k"`
	MinSimilarity float64 `json:"min_similarity"`
	CardID        string  `json:"card_id,omitempty"`
	Hits          int     `json:"hits"`
	Error         string  `json:"error,omitempty"`
}

// QueryLog collects QueryRecords across concurrent searches. The zero
// value is an empty log; pass nil to skip recording.
type QueryLog struct {
	mu      sync.Mutex
	records []QueryRecord
}

// NewQueryLog returns an empty log.
func NewQueryLog() *QueryLog { return &QueryLog{} }

func (l *QueryLog) add(rec QueryRecord) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()
}

// Records returns a copy of everything logged so far.
func (l *QueryLog) Records() []QueryRecord {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]QueryRecord, len(l.records))
	copy(out, l.records)
	return out
}

// CardProgress is one per-card completion notification, emitted in
// completion order.
type CardProgress struct {
	Completed  int
	Total      int
	Ratio      float64
	CardID     string
	CardName   string
	FirstReady bool
}

// Retriever fans searches out over a Searcher.
type Retriever struct {
	index Searcher
	sem   *semaphore.Weighted
	log   *slog.Logger
}

// New builds a Retriever sharing the process-wide search semaphore.
func New(index Searcher) *Retriever {
	return &Retriever{
		index: index,
		sem:   searchSem,
		log:   slog.Default().With("component", "retriever"),
	}
}

// search runs one query under the semaphore. A failed query is logged and
// returned as zero hits; the retrieval step as a whole continues.
func (r *Retriever) search(ctx context.Context, q query, cardID string, qlog *QueryLog) []models.ScoredChunk {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		qlog.add(QueryRecord{Query: q.Text, Type: q.Type, TopK: q.TopK, MinSimilarity: q.MinSim, CardID: cardID, Error: err.Error()})
		return nil
	}
	chunks, err := r.index.Search(ctx, q.Text, q.TopK, q.MinSim)
	r.sem.Release(1)
	if err != nil {
		r.log.Warn("rag query failed, treating as zero hits", "query", q.Text, "type", q.Type, "error", err)
		qlog.add(QueryRecord{Query: q.Text, Type: q.Type, TopK: q.TopK, MinSimilarity: q.MinSim, CardID: cardID, Error: err.Error()})
		return nil
	}
	qlog.add(QueryRecord{Query: q.Text, Type: q.Type, TopK: q.TopK, MinSimilarity: q.MinSim, CardID: cardID, Hits: len(chunks)})
	return chunks
}

// runQueries executes queries in parallel and returns the deduplicated
// union of their hits, highest similarity winning per chunk id.
func (r *Retriever) runQueries(ctx context.Context, queries []query, cardID string, qlog *QueryLog) []models.ScoredChunk {
	results := make([][]models.ScoredChunk, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			results[i] = r.search(gctx, q, cardID, qlog)
			return nil
		})
	}
	_ = g.Wait() // individual query failures never propagate

	var all []models.ScoredChunk
	for _, chunks := range results {
		all = append(all, chunks...)
	}
	return dedupeChunks(all)
}

// RetrieveCard gathers the three-query bundle for one dealt card.
func (r *Retriever) RetrieveCard(ctx context.Context, dc models.DealtCard, qlog *QueryLog) models.CardRetrieval {
	queries := cardQueries(dc)
	chunks := r.runQueries(ctx, queries, dc.Card.ID, qlog)

	types := make([]string, len(queries))
	for i, q := range queries {
		types[i] = q.Type
	}

	return models.CardRetrieval{
		CardID:     dc.Card.ID,
		CardNameEn: dc.Card.NameEn,
		Position:   dc.Position,
		IsReversed: dc.IsReversed,
		Arcana:     dc.Card.Arcana,
		Chunks:     chunks,
		Citations:  citations(chunks),
		QueryCount: len(queries),
		QueryTypes: types,
	}
}

// RetrieveCards runs the per-card fan-out for every dealt card in
// parallel, keyed by card id.
func (r *Retriever) RetrieveCards(ctx context.Context, cards []models.DealtCard, qlog *QueryLog) map[string]models.CardRetrieval {
	return r.RetrieveCardsWithProgress(ctx, cards, qlog, nil)
}

// RetrieveCardsWithProgress is the streaming variant: onProgress (when
// non-nil) is called once per completed card, in completion order, from a
// single goroutine. The FirstReady flag fires exactly once, when the
// completed count reaches max(1, total/10), or 1 for a three-card
// spread.
func (r *Retriever) RetrieveCardsWithProgress(ctx context.Context, cards []models.DealtCard, qlog *QueryLog, onProgress func(CardProgress)) map[string]models.CardRetrieval {
	total := len(cards)
	if total == 0 {
		return map[string]models.CardRetrieval{}
	}

	threshold := total / 10
	if total == 3 || threshold < 1 {
		threshold = 1
	}

	results := make(chan models.CardRetrieval, total)
	for _, dc := range cards {
		go func(dc models.DealtCard) {
			results <- r.RetrieveCard(ctx, dc, qlog)
		}(dc)
	}

	out := make(map[string]models.CardRetrieval, total)
	firstSent := false
	for completed := 1; completed <= total; completed++ {
		cr := <-results
		out[cr.CardID] = cr
		if onProgress == nil {
			continue
		}
		progress := CardProgress{
			Completed: completed,
			Total:     total,
			Ratio:     float64(completed) / float64(total),
			CardID:    cr.CardID,
			CardName:  cr.CardNameEn,
		}
		if !firstSent && completed >= threshold {
			firstSent = true
			progress.FirstReady = true
		}
		onProgress(progress)
	}
	return out
}

// RetrieveSpreadMethod gathers the four spread-method context queries.
func (r *Retriever) RetrieveSpreadMethod(ctx context.Context, spread models.SpreadType, qlog *QueryLog) []models.ScoredChunk {
	return r.runQueries(ctx, spreadMethodQueries(spread), "", qlog)
}

// RetrieveRelationships gathers the cross-card relationship context.
func (r *Retriever) RetrieveRelationships(ctx context.Context, cards []models.DealtCard, qlog *QueryLog) []models.ScoredChunk {
	return r.runQueries(ctx, relationshipQueries(cards), "", qlog)
}

// dedupeChunks keeps one chunk per id (highest similarity wins) and sorts
// by similarity descending, id ascending as the tiebreak.
func dedupeChunks(chunks []models.ScoredChunk) []models.ScoredChunk {
	best := make(map[string]models.ScoredChunk)
	for _, c := range chunks {
		if existing, ok := best[c.ID]; !ok || c.Similarity > existing.Similarity {
			best[c.ID] = c
		}
	}
	out := make([]models.ScoredChunk, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func citations(chunks []models.ScoredChunk) []models.Citation {
	out := make([]models.Citation, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, models.Citation{Source: c.Source, ChunkID: c.ID, Similarity: c.Similarity})
	}
	return out
}
