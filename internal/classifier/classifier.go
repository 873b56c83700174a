// Package classifier turns the collected page and document text into a
// RequirementSet with a single oracle call.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"subsidyscout/internal/llm"
	"subsidyscout/internal/metrics"
	"subsidyscout/internal/model"
	"subsidyscout/internal/scrapeutil"
	"subsidyscout/internal/vocab"
)

// ErrOracleUnavailable is returned when the classification call fails.
var ErrOracleUnavailable = errors.New("reasoning oracle unavailable")

const (
	defaultContentLimit = 15000
	defaultMaxTokens    = 4000
)

// FallbackNote is the analysis note of a RequirementSet produced when the
// oracle answer could not be parsed.
const FallbackNote = "The classification response could not be parsed as JSON. " +
	"No requirements were inferred by pattern matching; the sets are left empty."

type Options struct {
	ContentLimit int
	Temperature  float64
	MaxTokens    int
}

// Classifier asks the oracle which requirements are attestations. When a
// vocabulary is set, attestations are restricted to its keys.
type Classifier struct {
	oracle llm.Completer
	vocab  vocab.Vocabulary
	opts   Options
	logger *slog.Logger
}

func New(oracle llm.Completer, v vocab.Vocabulary, opts Options, logger *slog.Logger) *Classifier {
	if opts.ContentLimit <= 0 {
		opts.ContentLimit = defaultContentLimit
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{oracle: oracle, vocab: v, opts: opts, logger: logger}
}

// Classify aggregates pages and docs and classifies their requirements.
// Only a failing oracle call is an error; unusable answers yield
// Fallback().
func (c *Classifier) Classify(ctx context.Context, pages []model.PageRecord, docs []model.DocumentRecord) (model.RequirementSet, error) {
	content := scrapeutil.Truncate(Aggregate(pages, docs), c.opts.ContentLimit)

	system, prompt := genericSystem, genericPrompt(content)
	if !c.vocab.Empty() {
		system, prompt = schemaSystem, schemaPrompt(content, c.vocab)
	}

	answer, err := c.oracle.Complete(ctx, llm.CompletionRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
		JSON:        true,
	})
	if err != nil {
		metrics.RecordLLMCall(metrics.StageClassify, metrics.OutcomeError)
		return model.RequirementSet{}, fmt.Errorf("%w: classification: %v", ErrOracleUnavailable, err)
	}

	reqs, err := Parse(answer)
	if err != nil {
		metrics.RecordLLMCall(metrics.StageClassify, metrics.OutcomeFallback)
		c.logger.Warn("classification answer unusable", "error", err, "answer_bytes", len(answer))
		return Fallback(), nil
	}
	metrics.RecordLLMCall(metrics.StageClassify, metrics.OutcomeOK)

	if !c.vocab.Empty() {
		reqs.Attestations = c.restrict(reqs.Attestations)
	}
	return reqs, nil
}

// restrict drops attestation keys that are not in the vocabulary.
func (c *Classifier) restrict(keys []string) []string {
	kept := make([]string, 0, len(keys))
	for _, k := range keys {
		if c.vocab.Has(k) {
			kept = append(kept, k)
			continue
		}
		c.logger.Debug("dropping attestation outside vocabulary", "key", k)
	}
	return kept
}

// Aggregate renders pages then non-empty documents as one text block,
// each section headed by its title, its selection reason and, for
// documents, its format.
func Aggregate(pages []model.PageRecord, docs []model.DocumentRecord) string {
	var b strings.Builder
	for _, p := range pages {
		fmt.Fprintf(&b, "=== PAGE: %s ===\nReason: %s\n%s\n\n", p.Title, p.Reason, p.NormalizedText)
	}
	for _, d := range docs {
		if strings.TrimSpace(d.ExtractedText) == "" {
			continue
		}
		fmt.Fprintf(&b, "=== DOCUMENT (%s): %s ===\nReason: %s\n%s\n\n",
			strings.ToUpper(string(d.Type)), d.Title, d.Reason, d.ExtractedText)
	}
	return strings.TrimSpace(b.String())
}

// answer mirrors the expected JSON; pointers tell missing from empty.
type answer struct {
	Attestations    []string `json:"attestations"`
	NonAttestations []string `json:"non_attestations"`
	AnalysisNotes   *string  `json:"analysis_notes"`
}

// Parse sanitizes an oracle answer: a fenced block is unwrapped, else the
// outermost braces are sliced out, then the JSON is decoded. Missing
// fields come back as empty values, never nil.
func Parse(content string) (model.RequirementSet, error) {
	var a answer
	if err := llm.DecodeJSON(content, &a); err != nil {
		return model.RequirementSet{}, err
	}

	reqs := model.RequirementSet{
		Attestations:    cleanList(a.Attestations),
		NonAttestations: cleanList(a.NonAttestations),
	}
	if a.AnalysisNotes != nil {
		reqs.AnalysisNotes = *a.AnalysisNotes
	}
	return reqs, nil
}

// Fallback is the RequirementSet used when the answer is unusable.
func Fallback() model.RequirementSet {
	return model.RequirementSet{
		Attestations:    []string{},
		NonAttestations: []string{},
		AnalysisNotes:   FallbackNote,
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
