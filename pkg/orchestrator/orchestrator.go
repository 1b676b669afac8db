// Package orchestrator implements C13: the eight-stage reading pipeline.
// It drives question analysis, significator resolution, card selection,
// pattern analysis, fan-out retrieval, imagery streaming, and the final
// interpretation, emitting an ordered event stream and best-effort audit
// rows along the way. The orchestrator is the sole writer of a Reading
// for its lifetime.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/tarot-reading/pkg/audit"
	"github.com/codeready-toolchain/tarot-reading/pkg/config"
	"github.com/codeready-toolchain/tarot-reading/pkg/deck"
	"github.com/codeready-toolchain/tarot-reading/pkg/llmclient"
	"github.com/codeready-toolchain/tarot-reading/pkg/models"
	"github.com/codeready-toolchain/tarot-reading/pkg/pattern"
	"github.com/codeready-toolchain/tarot-reading/pkg/prompt"
	"github.com/codeready-toolchain/tarot-reading/pkg/retriever"
	"github.com/codeready-toolchain/tarot-reading/pkg/significator"
)

// ErrEmptyQuestion rejects a request before any pipeline work starts.
var ErrEmptyQuestion = errors.New("question must not be empty")

// defaultSource is used when the request names no corpus.
const defaultSource = "pkt"

// Deps bundles the collaborators a ReadingOrchestrator drives. Tests
// inject fakes by constructing a different Deps; nothing here is a
// process-wide singleton.
type Deps struct {
	Config          config.Config
	Client          llmclient.ModelClient
	Selector        *deck.Selector
	Significator    *significator.Resolver
	PatternAnalyzer pattern.Analyzer
	Retriever       *retriever.Retriever
	Store           ReadingStore
	Audit           audit.Sink
}

// ReadingOrchestrator drives the pipeline.
type ReadingOrchestrator struct {
	deps     Deps
	modelSet config.ModelSet
	log      *slog.Logger
}

// New builds a ReadingOrchestrator. A nil PatternAnalyzer defaults to the
// deterministic analyzer.
func New(deps Deps) *ReadingOrchestrator {
	if deps.PatternAnalyzer == nil {
		deps.PatternAnalyzer = pattern.Deterministic{}
	}
	return &ReadingOrchestrator{
		deps:     deps,
		modelSet: deps.Config.ResolveModels(),
		log:      slog.Default().With("component", "reading_orchestrator"),
	}
}

// StreamReading runs the pipeline asynchronously, returning the ordered
// event stream. The channel closes when the pipeline finishes, fails, or
// the context is cancelled. Closing the context cancels in-flight
// subtasks cooperatively; no rollback of already-persisted state is
// attempted.
func (o *ReadingOrchestrator) StreamReading(ctx context.Context, req models.Request) (<-chan Event, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}

	events := make(chan Event, 64)
	go func() {
		defer close(events)
		emit := func(ev Event) bool {
			select {
			case events <- stamp(ev):
				return true
			case <-ctx.Done():
				return false
			}
		}
		o.run(ctx, req, emit)
	}()
	return events, nil
}

// CreateReading is the non-streamed variant: the same pipeline, fully
// awaited, returning the completed aggregate. The state machine and
// failure semantics are identical to StreamReading.
func (o *ReadingOrchestrator) CreateReading(ctx context.Context, req models.Request) (*models.Reading, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}
	var failure error
	reading := o.run(ctx, req, func(ev Event) bool {
		if ev.Type == EventError {
			failure = errors.New(ev.Error)
		}
		return true
	})
	if failure != nil {
		return reading, failure
	}
	return reading, nil
}

// run executes the pipeline, emitting events through emit. It returns
// the reading in its final state, whatever that is.
func (o *ReadingOrchestrator) run(ctx context.Context, req models.Request, emit func(Event) bool) *models.Reading {
	start := time.Now()

	source := req.PreferredSource
	if source == "" {
		source = defaultSource
	}
	language := req.OutputLanguage
	if language == "" {
		language = "zh"
	}

	reading := &models.Reading{
		ID:          uuid.NewString(),
		Question:    req.Question,
		UserID:      req.UserID,
		SpreadType:  models.SpreadThreeCard,
		Status:      models.StatusPending,
		CurrentStep: "question_analysis",
		SourcePage:  req.SourcePage,
		CreatedAt:   start.UTC(),
	}

	fail := func(err error) *models.Reading {
		o.log.Error("reading pipeline failed", "reading_id", reading.ID, "step", reading.CurrentStep, "error", err)
		emit(Event{Type: EventError, Error: err.Error(), ReadingID: reading.ID})
		now := time.Now().UTC()
		reading.Status = models.StatusError
		reading.Interpretation = err.Error()
		reading.LastErrorAt = &now
		if uerr := o.deps.Store.UpdateReading(ctx, reading); uerr != nil {
			o.log.Warn("failed to persist error status", "reading_id", reading.ID, "error", uerr)
		}
		return reading
	}

	if err := o.deps.Store.CreateReading(ctx, reading); err != nil {
		emit(Event{Type: EventError, Error: err.Error()})
		return reading
	}
	if !emit(Event{Type: EventProgress, Step: StepStarted, ReadingID: reading.ID, Message: "开始塔罗占卜..."}) {
		return reading
	}

	// Stage 1: question analysis.
	stageStart := time.Now()
	analyzer := prompt.NewQuestionAnalyzer(o.deps.Client, o.modelSet.QuestionAnalysis)
	qres, err := analyzer.Analyze(ctx, req.Question, req.UserProfile, req.UserSelectedSpread)
	if err != nil {
		return fail(err)
	}
	reading.QuestionAnalysis = &qres.Analysis
	reading.SpreadType = qres.FinalSpread
	reading.SpreadReason = qres.Analysis.Reasoning
	reading.CurrentStep = "card_selection"
	if err := o.deps.Store.UpdateReading(ctx, reading); err != nil {
		return fail(err)
	}
	o.recordAudit(ctx, models.ProcessRow{
		ReadingID:        reading.ID,
		StepName:         models.StepQuestionAnalysis,
		StepOrder:        models.StepOrderFor(models.StepQuestionAnalysis),
		InputData:        map[string]any{"question": req.Question, "user_profile": req.UserProfile, "user_selected_spread": req.UserSelectedSpread},
		OutputData:       qres.Analysis,
		PromptType:       strPtr("question_analysis"),
		PromptContent:    &qres.Prompt,
		ModelUsed:        &qres.Model,
		Temperature:      &qres.Temperature,
		ProcessingTimeMs: time.Since(stageStart).Milliseconds(),
	})
	if !emit(Event{
		Type: EventProgress, Step: StepQuestionAnalysis,
		QuestionAnalysis: reading.QuestionAnalysis,
		SpreadType:       reading.SpreadType,
		Message:          "问题分析完成",
	}) {
		return reading
	}

	// Stage 2: significator (Celtic Cross only, and only with a profile).
	if deck.UsesSignificator(reading.SpreadType) {
		if req.UserProfile == nil {
			o.log.Warn("celtic cross requested without profile, proceeding without significator", "reading_id", reading.ID)
		} else {
			card, reason, rerr := o.deps.Significator.Resolve(ctx, req.UserProfile, reading.QuestionAnalysis.QuestionDomain, req.SignificatorPriority, source)
			if rerr != nil {
				return fail(rerr)
			}
			reading.SignificatorCard = card
			reading.SignificatorReason = reason
		}
	}

	// Stage 3: card selection.
	dealt, err := o.deps.Selector.Deal(ctx, source, reading.SpreadType, reading.SignificatorCard)
	if err != nil {
		return fail(err)
	}
	now := time.Now().UTC()
	reading.DealtCards = dealt
	reading.Status = models.StatusCardSelected
	reading.CardSelectedAt = &now
	reading.CurrentStep = "pattern_analysis"
	if err := o.deps.Store.UpdateReading(ctx, reading); err != nil {
		return fail(err)
	}
	if err := o.deps.Store.SaveDealtCards(ctx, reading.ID, dealt); err != nil {
		return fail(err)
	}
	views := make([]CardView, len(dealt))
	for i, dc := range dealt {
		views[i] = cardView(dc)
	}
	if !emit(Event{
		Type: EventProgress, Step: StepCardsSelected,
		Cards:        views,
		Significator: significatorView(reading.SignificatorCard, reading.SignificatorReason),
		Message:      "卡牌已选定",
	}) {
		return reading
	}

	// Stage 4: pattern analysis.
	stageStart = time.Now()
	analysis, err := o.deps.PatternAnalyzer.Analyze(ctx, dealt, reading.SpreadType, reading.QuestionAnalysis.QuestionDomain)
	if err != nil {
		return fail(err)
	}
	reading.PatternAnalysis = &analysis
	reading.CurrentStep = "rag_retrieval"
	if err := o.deps.Store.UpdateReading(ctx, reading); err != nil {
		return fail(err)
	}
	o.recordAudit(ctx, models.ProcessRow{
		ReadingID:        reading.ID,
		StepName:         models.StepPatternAnalysis,
		StepOrder:        models.StepOrderFor(models.StepPatternAnalysis),
		InputData:        map[string]any{"spread_type": reading.SpreadType, "cards": views},
		OutputData:       analysis,
		ProcessingTimeMs: time.Since(stageStart).Milliseconds(),
	})
	if !emit(Event{
		Type: EventProgress, Step: StepPatternAnalyzed,
		PatternAnalysis: reading.PatternAnalysis,
		Message:         "牌型分析完成",
	}) {
		return reading
	}

	// Stage 5: per-card fan-out retrieval with progress. Spread-method and
	// relationship retrieval start afterwards as background work and are
	// joined after the imagery stream.
	ragStart := time.Now()
	qlog := retriever.NewQueryLog()
	cardInfo := o.deps.Retriever.RetrieveCardsWithProgress(ctx, dealt, qlog, func(p retriever.CardProgress) {
		emit(Event{
			Type: EventProgress, Step: StepRagCardProgress,
			Progress:       p.Ratio,
			CompletedCards: p.Completed,
			TotalCards:     p.Total,
			CardID:         p.CardID,
			CardName:       p.CardName,
			Message:        fmt.Sprintf("已检索 %d/%d 张卡牌", p.Completed, p.Total),
		})
		if p.FirstReady {
			emit(Event{
				Type: EventProgress, Step: StepRagFirstCardReady,
				CompletedCards: p.Completed,
				TotalCards:     p.Total,
				Message:        "首张卡牌资料已就绪",
			})
		}
	})
	if !emit(Event{Type: EventProgress, Step: StepRagRetrieved, Message: "卡牌资料检索完成"}) {
		return reading
	}

	methodCh := make(chan []models.ScoredChunk, 1)
	relCh := make(chan []models.ScoredChunk, 1)
	go func() {
		methodCh <- o.deps.Retriever.RetrieveSpreadMethod(ctx, reading.SpreadType, qlog)
	}()
	go func() {
		relCh <- o.deps.Retriever.RetrieveRelationships(ctx, dealt, qlog)
	}()

	// Stage 6: imagery streaming, overlapping the background retrieval.
	stageStart = time.Now()
	imageryGen := prompt.NewImageryGenerator(o.deps.Client, o.modelSet.Imagery)
	imageryChunks, imageryErrs, imageryInfo := imageryGen.Stream(ctx, dealt, cardInfo, reading.QuestionAnalysis.QuestionDomain)
	var imagery strings.Builder
	for chunk := range imageryChunks {
		imagery.WriteString(chunk.Content)
		if !emit(Event{Type: EventImageryChunk, Text: chunk.Content}) {
			return reading
		}
	}
	if serr := <-imageryErrs; serr != nil {
		// An imagery failure degrades to the fallback sentence rather than
		// failing the reading.
		o.log.Warn("imagery generation failed, using fallback", "reading_id", reading.ID, "error", serr)
		if imagery.Len() == 0 {
			imagery.WriteString(prompt.FallbackImagery)
			if !emit(Event{Type: EventImageryChunk, Text: prompt.FallbackImagery}) {
				return reading
			}
		}
	}
	reading.ImageryDescription = imagery.String()
	if !emit(Event{
		Type: EventProgress, Step: StepImageryGenerated,
		ImageryDescription: reading.ImageryDescription,
		Message:            "意象描述已生成",
	}) {
		return reading
	}

	methodChunks := <-methodCh
	relChunks := <-relCh

	bundle := models.RetrievalBundle{
		Cards:              cardInfo,
		SpreadMethodChunks: methodChunks,
		RelationshipChunks: relChunks,
	}
	allChunks := bundle.Deduplicated()

	o.recordAudit(ctx, models.ProcessRow{
		ReadingID: reading.ID,
		StepName:  models.StepRAGRetrieval,
		StepOrder: models.StepOrderFor(models.StepRAGRetrieval),
		InputData: map[string]any{"spread_type": reading.SpreadType, "card_count": len(dealt)},
		OutputData: map[string]any{
			"card_chunk_sets":      len(cardInfo),
			"spread_method_chunks": len(methodChunks),
			"relationship_chunks":  len(relChunks),
			"unique_chunks":        len(allChunks),
		},
		RAGQueries:       qlog.Records(),
		ProcessingTimeMs: time.Since(ragStart).Milliseconds(),
	})
	o.recordAudit(ctx, models.ProcessRow{
		ReadingID:        reading.ID,
		StepName:         models.StepImageryDescription,
		StepOrder:        models.StepOrderFor(models.StepImageryDescription),
		InputData:        map[string]any{"question_domain": reading.QuestionAnalysis.QuestionDomain, "fallback": imageryInfo.Fallback},
		OutputData:       map[string]any{"imagery_description": reading.ImageryDescription},
		PromptType:       strPtr("imagery_description"),
		PromptContent:    nilIfEmpty(imageryInfo.Prompt),
		ModelUsed:        nilIfEmpty(imageryInfo.Model),
		Temperature:      &imageryInfo.Temperature,
		ProcessingTimeMs: time.Since(stageStart).Milliseconds(),
	})

	// Stage 7: final interpretation streaming.
	if !emit(Event{Type: EventProgress, Step: StepInterpretationStarted, Message: "开始生成最终解读..."}) {
		return reading
	}
	stageStart = time.Now()
	reading.CurrentStep = "interpretation"
	interpreter := prompt.NewInterpreter(o.deps.Client)
	interpretationModel := o.deps.Config.ResolveInterpretationModel(derefOrEmpty(req.InterpretationModelPreference))
	interpChunks, interpErrs, interpInfo := interpreter.Stream(ctx, prompt.InterpretationInput{
		Question:        req.Question,
		Analysis:        *reading.QuestionAnalysis,
		Cards:           dealt,
		PatternAnalysis: analysis,
		Imagery:         reading.ImageryDescription,
		Chunks:          allChunks,
		Profile:         req.UserProfile,
		Language:        language,
		Model:           interpretationModel,
	})
	var interpretation strings.Builder
	for chunk := range interpChunks {
		interpretation.WriteString(chunk.Content)
		if !emit(Event{Type: EventInterpretation, Text: chunk.Content}) {
			return reading
		}
	}
	if serr := <-interpErrs; serr != nil {
		return fail(serr)
	}

	totalTime := time.Since(start).Milliseconds()
	now = time.Now().UTC()
	reading.Interpretation = interpretation.String()
	reading.InterpretationFullText = interpretation.String()
	reading.InterpretationMetadata = map[string]any{
		"model":         interpInfo.Model,
		"unique_chunks": len(allChunks),
		"total_time_ms": totalTime,
	}
	reading.Status = models.StatusCompleted
	reading.CurrentStep = "completed"
	reading.CompletedAt = &now
	if err := o.deps.Store.UpdateReading(ctx, reading); err != nil {
		// The final completed write gets one retry before the reading is
		// declared failed.
		o.log.Warn("final reading update failed, retrying once", "reading_id", reading.ID, "error", err)
		if err := o.deps.Store.UpdateReading(ctx, reading); err != nil {
			return fail(err)
		}
	}
	o.recordAudit(ctx, models.ProcessRow{
		ReadingID:        reading.ID,
		StepName:         models.StepFinalInterpretation,
		StepOrder:        models.StepOrderFor(models.StepFinalInterpretation),
		InputData:        map[string]any{"unique_chunks": len(allChunks), "imagery_description": reading.ImageryDescription},
		OutputData:       map[string]any{"interpretation_length": interpretation.Len()},
		PromptType:       strPtr("final_interpretation"),
		PromptContent:    &interpInfo.Prompt,
		ModelUsed:        &interpInfo.Model,
		Temperature:      &interpInfo.Temperature,
		ProcessingTimeMs: time.Since(stageStart).Milliseconds(),
	})

	emit(Event{
		Type:        EventComplete,
		ReadingID:   reading.ID,
		Question:    reading.Question,
		SpreadType:  reading.SpreadType,
		TotalTimeMs: totalTime,
		Message:     "塔罗解读完成",
	})
	return reading
}

// recordAudit writes one audit row, best-effort: a failure is logged and
// the pipeline proceeds.
func (o *ReadingOrchestrator) recordAudit(ctx context.Context, row models.ProcessRow) {
	if o.deps.Audit == nil {
		return
	}
	if err := o.deps.Audit.Record(ctx, row); err != nil {
		o.log.Warn("audit row write failed", "reading_id", row.ReadingID, "step", row.StepName, "error", err)
	}
}

func strPtr(s string) *string { return &s }

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
