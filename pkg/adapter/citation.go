package adapter

import (
	"fmt"

	"github.com/gnandy18/hieagent/pkg/model"
)

// Keys under which Dify RAG responses have been observed to carry source
// material. The shape behind each key varies by app version, so extraction
// stays permissive and normalization does the flattening.
var citationKeys = []string{
	"citations",
	"citation",
	"context",
	"contexts",
	"knowledge",
	"knowledge_context",
	"knowledge_contents",
	"retriever_resources",
}

// ExtractCitations collects citation-like values from relay response
// metadata and normalizes them into deduplicated Citations. It is a pure
// function: nil or citation-free metadata yields nil.
func ExtractCitations(metadata map[string]any) []*model.Citation {
	if metadata == nil {
		return nil
	}

	var candidates []any
	for _, key := range citationKeys {
		if value, ok := metadata[key]; ok && value != nil {
			candidates = append(candidates, value)
		}
	}
	if rag, ok := metadata["rag"].(map[string]any); ok {
		for _, key := range []string{"citations", "contexts"} {
			if value, ok := rag[key]; ok && value != nil {
				candidates = append(candidates, value)
			}
		}
	}

	var normalized []*model.Citation
	for _, candidate := range candidates {
		normalized = append(normalized, normalizeCitation(candidate)...)
	}

	// Drop noisy repeats keyed by title+snippet.
	type dedupeKey struct{ title, snippet string }
	seen := map[dedupeKey]bool{}
	var unique []*model.Citation
	for _, c := range normalized {
		key := dedupeKey{title: c.Title, snippet: c.Snippet}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, c)
	}
	return unique
}

// normalizeCitation flattens one candidate value into citations. Lists are
// walked element by element, single objects pass through, and objects that
// wrap their list under "data" are unwrapped.
func normalizeCitation(candidate any) []*model.Citation {
	var entries []any
	switch v := candidate.(type) {
	case []any:
		entries = v
	case map[string]any:
		if data, ok := v["data"].([]any); ok {
			entries = data
		} else {
			entries = []any{v}
		}
	default:
		entries = []any{v}
	}

	var out []*model.Citation
	for _, entry := range entries {
		item, ok := entry.(map[string]any)
		if !ok {
			out = append(out, &model.Citation{Snippet: fmt.Sprintf("%v", entry)})
			continue
		}
		out = append(out, &model.Citation{
			Snippet: firstString(item, "content", "text", "segment_content"),
			Title:   firstString(item, "document_name", "title", "dataset_name", "source", "provider_name"),
			Source:  firstString(item, "url", "link", "document_id", "segment_id"),
		})
	}
	return out
}

func firstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := item[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
