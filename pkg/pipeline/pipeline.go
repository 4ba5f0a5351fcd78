package pipeline

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"insightflow-be/internal/pkg/logger"
	"insightflow-be/pkg/assembler"
	"insightflow-be/pkg/embedding"
	"insightflow-be/pkg/llm"
	"insightflow-be/pkg/memory"
	"insightflow-be/pkg/router"
	"insightflow-be/pkg/tenantindex"
	"insightflow-be/pkg/tools"
)

const apologyMessage = "I apologize, but I ran into a problem while generating your answer. Please try again."

// Options tunes the per-request behavior of the pipeline.
type Options struct {
	TopK              int
	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration
	AnswerStoreChars  int
	ToolsEnabled      bool
}

func DefaultOptions() Options {
	return Options{
		TopK:              3,
		RetrievalTimeout:  10 * time.Second,
		GenerationTimeout: 60 * time.Second,
		AnswerStoreChars:  800,
		ToolsEnabled:      true,
	}
}

// PersistFunc is notified after a turn has been committed to session
// memory. Used to fan the completion out to the event bus.
type PersistFunc func(orgID, conversationID string, turn memory.Turn)

// Pipeline orchestrates one question through routing, retrieval or tool
// use, context assembly and generation. All collaborators are injected;
// the pipeline holds no global state of its own.
type Pipeline struct {
	index     tenantindex.Index
	sessions  *memory.Manager
	provider  llm.LLMProvider
	embedder  embedding.EmbeddingProvider
	tools     *tools.Registry
	router    *router.Router
	assembler *assembler.Assembler
	pool      *WorkerPool
	opts      Options
	log       logger.ILogger
	onPersist PersistFunc
}

func New(
	index tenantindex.Index,
	sessions *memory.Manager,
	provider llm.LLMProvider,
	embedder embedding.EmbeddingProvider,
	registry *tools.Registry,
	asm *assembler.Assembler,
	pool *WorkerPool,
	opts Options,
	log logger.ILogger,
) *Pipeline {
	defaults := DefaultOptions()
	if opts.TopK <= 0 {
		opts.TopK = defaults.TopK
	}
	if opts.RetrievalTimeout <= 0 {
		opts.RetrievalTimeout = defaults.RetrievalTimeout
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = defaults.GenerationTimeout
	}
	if opts.AnswerStoreChars <= 0 {
		opts.AnswerStoreChars = defaults.AnswerStoreChars
	}
	return &Pipeline{
		index:     index,
		sessions:  sessions,
		provider:  provider,
		embedder:  embedder,
		tools:     registry,
		router:    router.New(),
		assembler: asm,
		pool:      pool,
		opts:      opts,
		log:       log,
	}
}

// OnPersist registers the post-commit hook. Must be called before the
// first Run.
func (p *Pipeline) OnPersist(fn PersistFunc) {
	p.onPersist = fn
}

// Result is the aggregate, non-streaming outcome of one question.
type Result struct {
	Answer         string                 `json:"answer"`
	Steps          []*Step                `json:"steps"`
	ConversationID string                 `json:"conversation_id"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// runState carries one question through the stages.
type runState struct {
	orgID          string
	question       string
	conversationID string
	decision       router.Decision
	history        []memory.Turn
	results        []tenantindex.RetrievalResult
	toolResult     string
	steps          []*Step
	startedAt      time.Time
}

// Run processes a question and streams events on the returned channel.
// The channel always terminates with exactly one complete or error
// event and is closed afterwards. A turn is committed to session memory
// only when generation finishes; a cancelled or failed stream leaves
// the session untouched.
func (p *Pipeline) Run(ctx context.Context, orgID, question, conversationID string) <-chan Event {
	events := make(chan Event, 64)

	go func() {
		defer close(events)

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		state := p.newRunState(orgID, question, conversationID)

		p.classify(state)
		if !emit(stepEvent(state.lastStep(), 20)) {
			return
		}

		switch state.decision.Route {
		case router.RouteRetrieval:
			p.retrieve(ctx, state)
			if !emit(stepEvent(state.lastStep(), 50)) {
				return
			}
			p.analyze(state)
			if !emit(stepEvent(state.lastStep(), 70)) {
				return
			}
		case router.RouteTool:
			p.invokeTool(ctx, state)
			if !emit(stepEvent(state.lastStep(), 60)) {
				return
			}
		}

		prompt := p.assemble(state)

		genStep := &Step{
			Node:      NodeResponseGenerator,
			Status:    StatusInProgress,
			Timestamp: nowMillis(),
			Data:      map[string]interface{}{"streaming": true},
		}
		state.steps = append(state.steps, genStep)
		if !emit(stepEvent(genStep, 80)) {
			return
		}

		genCtx, cancel := context.WithTimeout(ctx, p.opts.GenerationTimeout)
		defer cancel()

		answer := ""
		err := p.provider.ChatStream(genCtx, []llm.Message{{Role: "user", Content: prompt}}, func(token string) error {
			answer += token
			progress := 80 + float64(len(answer))/10
			if progress > 95 {
				progress = 95
			}
			if !emit(tokenEvent(token, progress)) {
				return context.Canceled
			}
			return nil
		})
		if err != nil {
			p.log.Error("pipeline", "generation failed", map[string]interface{}{
				"org_id":          orgID,
				"conversation_id": conversationID,
				"error":           err.Error(),
			})
			emit(errorEvent(apologyMessage))
			return
		}

		p.persist(state, answer)
		meta := p.metadata(state)
		meta["streaming_enabled"] = true
		emit(completeEvent(meta))
	}()

	return events
}

// Process runs the same stages as Run but blocks and returns the
// aggregate result. Used by the non-streaming query endpoint.
func (p *Pipeline) Process(ctx context.Context, orgID, question, conversationID string) (*Result, error) {
	state := p.newRunState(orgID, question, conversationID)

	p.classify(state)

	switch state.decision.Route {
	case router.RouteRetrieval:
		p.retrieve(ctx, state)
		p.analyze(state)
	case router.RouteTool:
		p.invokeTool(ctx, state)
	}

	prompt := p.assemble(state)

	genCtx, cancel := context.WithTimeout(ctx, p.opts.GenerationTimeout)
	defer cancel()

	answer, err := p.provider.Chat(genCtx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		p.log.Error("pipeline", "generation failed", map[string]interface{}{
			"org_id":          orgID,
			"conversation_id": conversationID,
			"error":           err.Error(),
		})
		return nil, fmt.Errorf("generate response: %w", err)
	}

	genStep := &Step{
		Node:      NodeResponseGenerator,
		Status:    StatusCompleted,
		Timestamp: nowMillis(),
		Data: map[string]interface{}{
			"response_length":    len(answer),
			"sources_referenced": len(state.results),
		},
	}
	state.steps = append(state.steps, genStep)

	p.persist(state, answer)

	return &Result{
		Answer:         answer,
		Steps:          state.steps,
		ConversationID: conversationID,
		Metadata:       p.metadata(state),
	}, nil
}

func (p *Pipeline) newRunState(orgID, question, conversationID string) *runState {
	return &runState{
		orgID:          orgID,
		question:       question,
		conversationID: conversationID,
		startedAt:      time.Now(),
	}
}

func (s *runState) lastStep() *Step {
	return s.steps[len(s.steps)-1]
}

func (p *Pipeline) classify(state *runState) {
	start := time.Now()
	state.history = p.sessions.Snapshot(state.orgID, state.conversationID)
	state.decision = p.router.Classify(state.question, state.history)

	state.steps = append(state.steps, &Step{
		Node:      NodeQueryClassifier,
		Status:    StatusCompleted,
		Timestamp: nowMillis(),
		Data: map[string]interface{}{
			"query_type":            string(state.decision.Route),
			"classification_method": "rule_based",
			"matched_rule":          state.decision.Rule,
			"memory_context_used":   len(state.history) > 0,
			"processing_time_ms":    time.Since(start).Milliseconds(),
		},
	})
}

// retrieve embeds the question and searches the org's namespace, both
// on the shared worker pool under the retrieval deadline. Failure or
// timeout degrades to an empty result set; the question still gets an
// answer, just without grounding.
func (p *Pipeline) retrieve(ctx context.Context, state *runState) {
	start := time.Now()

	retrievalCtx, cancel := context.WithTimeout(ctx, p.opts.RetrievalTimeout)
	defer cancel()

	err := p.pool.Do(retrievalCtx, func(ctx context.Context) error {
		vector, err := p.embedder.Generate(ctx, state.question, embedding.TaskRetrievalQuery)
		if err != nil {
			return err
		}
		results, err := p.index.Search(ctx, state.orgID, vector, p.opts.TopK)
		if err != nil {
			return err
		}
		state.results = results
		return nil
	})

	if err != nil {
		p.log.Warn("pipeline", "retrieval degraded to empty results", map[string]interface{}{
			"org_id": state.orgID,
			"error":  err.Error(),
		})
		state.results = nil
		state.steps = append(state.steps, &Step{
			Node:      NodeDocumentRetriever,
			Status:    StatusError,
			Timestamp: nowMillis(),
			Data: map[string]interface{}{
				"error":              "retrieval unavailable",
				"documents_found":    0,
				"degraded":           true,
				"processing_time_ms": time.Since(start).Milliseconds(),
			},
		})
		return
	}

	avgScore := 0.0
	sources := make([]interface{}, 0, len(state.results))
	for _, r := range state.results {
		avgScore += r.SimilarityScore
		if name, ok := r.Metadata["filename"].(string); ok {
			sources = append(sources, name)
		} else {
			sources = append(sources, "unknown")
		}
	}
	if len(state.results) > 0 {
		avgScore /= float64(len(state.results))
	}

	state.steps = append(state.steps, &Step{
		Node:      NodeDocumentRetriever,
		Status:    StatusCompleted,
		Timestamp: nowMillis(),
		Data: map[string]interface{}{
			"documents_found":      len(state.results),
			"avg_similarity_score": avgScore,
			"sources":              sources,
			"processing_time_ms":   time.Since(start).Milliseconds(),
		},
	})
}

func (p *Pipeline) analyze(state *runState) {
	start := time.Now()

	data := map[string]interface{}{
		"processing_time_ms": time.Since(start).Milliseconds(),
	}
	if len(state.results) == 0 {
		data["analysis_type"] = "no_documents"
	} else {
		data["analysis_type"] = "fast_analysis"
		data["documents_analyzed"] = len(state.results)
	}

	state.steps = append(state.steps, &Step{
		Node:      NodeContextAnalyzer,
		Status:    StatusCompleted,
		Timestamp: nowMillis(),
		Data:      data,
	})
}

func (p *Pipeline) invokeTool(ctx context.Context, state *runState) {
	start := time.Now()

	if !p.opts.ToolsEnabled || p.tools == nil {
		state.steps = append(state.steps, &Step{
			Node:      NodeToolUser,
			Status:    StatusCompleted,
			Timestamp: nowMillis(),
			Data: map[string]interface{}{
				"tools_enabled":      false,
				"processing_time_ms": time.Since(start).Milliseconds(),
			},
		})
		return
	}

	invocation, err := p.tools.Invoke(ctx, state.question)
	if err != nil {
		p.log.Warn("pipeline", "tool invocation failed", map[string]interface{}{
			"org_id": state.orgID,
			"error":  err.Error(),
		})
		state.steps = append(state.steps, &Step{
			Node:      NodeToolUser,
			Status:    StatusError,
			Timestamp: nowMillis(),
			Data: map[string]interface{}{
				"error":              "tool unavailable",
				"processing_time_ms": time.Since(start).Milliseconds(),
			},
		})
		return
	}

	state.toolResult = invocation.Result
	state.steps = append(state.steps, &Step{
		Node:      NodeToolUser,
		Status:    StatusCompleted,
		Timestamp: nowMillis(),
		Data: map[string]interface{}{
			"tool":               invocation.Tool,
			"method":             invocation.Method,
			"processing_time_ms": time.Since(start).Milliseconds(),
		},
	})
}

func (p *Pipeline) assemble(state *runState) string {
	pc := p.assembler.Assemble(state.question, state.decision.Route, state.results, state.history, state.toolResult)
	return pc.Prompt
}

// persist commits exactly one turn after a successful generation. The
// stored answer is clipped so one verbose reply cannot dominate future
// context windows.
func (p *Pipeline) persist(state *runState, answer string) {
	stored := answer
	if len(stored) > p.opts.AnswerStoreChars {
		cut := p.opts.AnswerStoreChars
		for cut > 0 && !utf8.RuneStart(stored[cut]) {
			cut--
		}
		stored = stored[:cut]
	}
	turn := memory.Turn{
		Question:  state.question,
		Answer:    stored,
		Route:     string(state.decision.Route),
		Timestamp: time.Now(),
	}
	p.sessions.AppendTurn(state.orgID, state.conversationID, turn)

	if p.onPersist != nil {
		p.onPersist(state.orgID, state.conversationID, turn)
	}
}

func (p *Pipeline) metadata(state *runState) map[string]interface{} {
	return map[string]interface{}{
		"query_type":               string(state.decision.Route),
		"total_processing_time_ms": time.Since(state.startedAt).Milliseconds(),
		"documents_used":           len(state.results),
		"steps_executed":           len(state.steps),
		"model_used":               p.provider.ModelName(),
		"memory_enabled":           true,
	}
}
