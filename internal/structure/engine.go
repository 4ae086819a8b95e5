package structure

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/docgraph/docgraph/internal/extract"
	"github.com/docgraph/docgraph/internal/providers"
	"github.com/docgraph/docgraph/internal/svcctx"
)

// Engine runs the structure-generation round trip: build the prompt, call
// the generator, parse or repair the response. Generate always returns a
// non-empty outline with page references clamped to the document's range;
// the only error it propagates is context cancellation.
type Engine struct {
	Client     providers.LLMClient
	Convention Convention
	Mode       Mode
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	// ContextBudget caps per-page body text in the fallback outline.
	ContextBudget int
}

func (e *Engine) withDefaults() *Engine {
	out := *e
	if out.Convention == "" {
		out.Convention = ConventionMarker
	}
	if out.Mode == "" {
		out.Mode = ModeVision
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = 8192
	}
	if out.Timeout <= 0 {
		out.Timeout = 3 * time.Minute
	}
	if out.ContextBudget <= 0 {
		out.ContextBudget = 500
	}
	return &out
}

// Generate produces the document outline.
func (e *Engine) Generate(ctx context.Context, doc *extract.Document) (*Outline, error) {
	eng := e.withDefaults()
	log := svcctx.LoggerFrom(ctx)

	req := &providers.ChatRequest{
		Messages:    eng.buildMessages(doc),
		Model:       eng.Model,
		Temperature: 0,
		MaxTokens:   eng.MaxTokens,
		Timeout:     eng.Timeout,
	}

	res, err := eng.Client.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		log.Warn("structure generation failed, using page fallback",
			"error_type", res.ErrorType, "error", res.ErrorMessage)
		return eng.fallback(doc), nil
	}
	if res.Truncated {
		log.Warn("structure generation hit the output length cap",
			"completion_tokens", res.CompletionTokens)
	}

	outline := eng.parse(ctx, res.Content, doc)
	ClampPages(outline, len(doc.Pages))
	return outline, nil
}

// parse dispatches to the convention parser, degrading to salvage and then
// the page fallback for the JSON path.
func (e *Engine) parse(ctx context.Context, raw string, doc *extract.Document) *Outline {
	log := svcctx.LoggerFrom(ctx)

	if e.Convention == ConventionMarker {
		outline := ParseMarkerResponse(raw)
		if outline.IsPlaceholder() {
			log.Warn("marker response yielded no structure")
		}
		return outline
	}

	outline, err := ParseJSONResponse(raw)
	if err == nil && !outline.IsEmpty() {
		return outline
	}
	if err != nil {
		log.Warn("JSON structure parse failed, attempting salvage", "error", err)
	}
	if salvaged, ok := Salvage(raw); ok {
		log.Info("salvaged partial structure", "headings", len(salvaged.DocumentStructure))
		return salvaged
	}
	log.Warn("salvage yielded too little, using page fallback")
	return e.fallback(doc)
}

func (e *Engine) fallback(doc *extract.Document) *Outline {
	return FallbackOutline(doc.Pages, e.ContextBudget)
}

// buildMessages assembles the system and user messages; in vision mode the
// user message carries the decoded page images.
func (e *Engine) buildMessages(doc *extract.Document) []providers.Message {
	user := providers.Message{
		Role:    "user",
		Content: BuildUserPrompt(doc, e.Convention),
	}
	if e.Mode == ModeVision {
		for _, p := range doc.Pages {
			if p.Image == "" {
				continue
			}
			img, err := base64.StdEncoding.DecodeString(p.Image)
			if err != nil {
				continue
			}
			user.Images = append(user.Images, img)
		}
	}
	return []providers.Message{
		{Role: "system", Content: SystemPrompt(e.Convention)},
		user,
	}
}
