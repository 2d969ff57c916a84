package server

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/docusign/api-request-builder-open-src/internal/codegen"
	"github.com/docusign/api-request-builder-open-src/internal/document"
	"github.com/docusign/api-request-builder-open-src/internal/metrics"
)

// programs wraps a generator with a cache of lowered sections. Rendering
// always runs so each program carries a fresh generation stamp.
type programs struct {
	gen   *codegen.Generator
	cache *lru.Cache[string, codegen.Sections]
}

func newPrograms(gen *codegen.Generator, size int) (*programs, error) {
	cache, err := lru.New[string, codegen.Sections](size)
	if err != nil {
		return nil, fmt.Errorf("creating lowering cache: %w", err)
	}
	return &programs{gen: gen, cache: cache}, nil
}

// Supported reports whether language has an implementation.
func (p *programs) Supported(language string) bool {
	_, ok := p.gen.Languages().Get(language)
	return ok
}

// DisplayName returns the human name of language.
func (p *programs) DisplayName(language string) string {
	return p.gen.Languages().DisplayName(language)
}

// Generate returns the program for req, or the Unsupported text.
func (p *programs) Generate(req document.Request, language string) (string, error) {
	lang, ok := p.gen.Languages().Get(language)
	if !ok {
		return codegen.Unsupported(p.DisplayName(language)), nil
	}

	body, err := document.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}
	key := language + "\x00" + string(body)

	sections, hit := p.cache.Get(key)
	if hit {
		metrics.LoweringCache.WithLabelValues("hit").Inc()
	} else {
		metrics.LoweringCache.WithLabelValues("miss").Inc()
		sections, err = p.gen.Sections(req, lang)
		if err != nil {
			return "", err
		}
		p.cache.Add(key, sections)
	}

	out, err := p.gen.Render(sections, lang)
	if err != nil {
		return "", err
	}
	metrics.Generations.WithLabelValues(language).Inc()
	return out, nil
}
