package ideas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"alphaminer/internal/domain"
)

const defaultOllamaTimeout = 120 * time.Second

// OllamaSource asks a local Ollama model for expression ideas. Each
// generation request yields a batch of candidates that are drained
// before the model is asked again.
type OllamaSource struct {
	host      string
	model     string
	prompt    string
	maxRounds int
	client    *http.Client
	logger    *log.Logger

	mu     sync.Mutex
	queue  []domain.IdeaCandidate
	rounds int
}

// OllamaOptions configures OllamaSource.
type OllamaOptions struct {
	Host      string // e.g. http://localhost:11434
	Model     string
	Prompt    string // instruction describing the desired expressions
	MaxRounds int    // generation requests before the source reports exhaustion
	Client    *http.Client
	Logger    *log.Logger
}

// NewOllamaSource creates an LLM-backed idea source.
func NewOllamaSource(opts OllamaOptions) *OllamaSource {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultOllamaTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 10
	}
	return &OllamaSource{
		host:      strings.TrimRight(opts.Host, "/"),
		model:     opts.Model,
		prompt:    opts.Prompt,
		maxRounds: maxRounds,
		client:    client,
		logger:    logger,
	}
}

func (s *OllamaSource) Next(ctx context.Context) (*domain.IdeaCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) == 0 {
		if s.rounds >= s.maxRounds {
			return nil, ErrExhausted
		}
		s.rounds++

		batch, err := s.generate(ctx)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			s.logger.Printf("generation round %d produced no parsable expressions", s.rounds)
			continue
		}
		s.queue = batch
	}

	candidate := s.queue[0]
	s.queue = s.queue[1:]
	return &candidate, nil
}

// generateRequest is the POST /api/generate body.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is the non-streaming /api/generate answer.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (s *OllamaSource) generate(ctx context.Context) ([]domain.IdeaCandidate, error) {
	body, err := json.Marshal(generateRequest{
		Model:  s.model,
		Prompt: s.prompt,
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama status %d: %s", resp.StatusCode, string(respBody))
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}

	return parseCandidates(gen.Response), nil
}

// parseCandidates extracts one expression per non-empty line,
// stripping markdown fences, bullets and numbering. Lines without a
// function call are discarded as prose.
func parseCandidates(text string) []domain.IdeaCandidate {
	var candidates []domain.IdeaCandidate

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "-")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}

		// Strip "1." / "2)" list numbering.
		if i := strings.IndexAny(line, ".)"); i > 0 && i <= 3 {
			if _, err := fmt.Sscanf(line[:i], "%d", new(int)); err == nil {
				line = strings.TrimSpace(line[i+1:])
			}
		}

		if !strings.Contains(line, "(") || !strings.Contains(line, ")") {
			continue
		}

		candidates = append(candidates, domain.IdeaCandidate{
			Expression: line,
			Hypothesis: "model generated",
			Origin:     domain.OriginLLM,
		})
	}

	return candidates
}
