package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mscwg/catalog/internal/catalog"
	"github.com/mscwg/catalog/internal/catalog/relations"
	"github.com/mscwg/catalog/internal/catalog/vocab"
)

func registerCatalogTools(mcpServer *mcp.Server, cat *catalog.Catalog) {
	mcp.AddTool(mcpServer, searchTool(), searchHandler(cat))
	mcp.AddTool(mcpServer, getTool(), getHandler(cat))
	mcp.AddTool(mcpServer, listTool(), listHandler(cat))
}

func registerThesaurusResources(mcpServer *mcp.Server, cat *catalog.Catalog) {
	mcpServer.AddResource(thesaurusResource(), thesaurusResourceHandler(cat))
}

// SearchInput represents the MCP tool input for catalog search.
type SearchInput struct {
	Query  string `json:"query" jsonschema:"search query, e.g. title:metadata AND keyword=\"Earth sciences\""`
	Series string `json:"series,omitempty" jsonschema:"optional record series filter (scheme, tool, mapping, organization, endorsement)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 25"`
}

// RecordSummary is one search or listing hit.
type RecordSummary struct {
	MSCID       string `json:"mscid"`
	Name        string `json:"name"`
	Series      string `json:"series"`
	Description string `json:"description,omitempty"`
}

// SearchResult represents the MCP tool output for catalog search.
type SearchResult struct {
	Total   int             `json:"total"`
	Records []RecordSummary `json:"records"`
}

func searchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_search",
		Description: "Searches catalog records by field query and returns matching summaries",
	}
}

func searchHandler(cat *catalog.Catalog) mcp.ToolHandlerFor[SearchInput, SearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchResult, error) {
		query := strings.TrimSpace(input.Query)
		if query == "" {
			return nil, SearchResult{}, fmt.Errorf("query is required")
		}
		recs, err := cat.Search(ctx, query)
		if err != nil {
			return nil, SearchResult{}, fmt.Errorf("catalog search failed: %w", err)
		}
		limit := input.Limit
		if limit <= 0 {
			limit = 25
		}
		result := SearchResult{}
		for _, rec := range recs {
			if rec.Annulled() {
				continue
			}
			series := rec.ID.Table.Series()
			if input.Series != "" && series != input.Series {
				continue
			}
			result.Total++
			if len(result.Records) >= limit {
				continue
			}
			result.Records = append(result.Records, RecordSummary{
				MSCID:       rec.ID.String(),
				Name:        rec.Name(),
				Series:      series,
				Description: docSummary(rec.Data),
			})
		}
		return nil, result, nil
	}
}

// GetInput represents the MCP tool input for record retrieval.
type GetInput struct {
	MSCID string `json:"mscid" jsonschema:"catalog identifier, e.g. msc:m13"`
}

// GetResult represents the MCP tool output for record retrieval.
type GetResult struct {
	MSCID           string             `json:"mscid"`
	Name            string             `json:"name"`
	Series          string             `json:"series"`
	Conformance     string             `json:"conformance"`
	Document        map[string]any     `json:"document"`
	RelatedEntities []relations.Entity `json:"relatedEntities,omitempty"`
}

func getTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_get",
		Description: "Retrieves one catalog record with its related entities and conformance level",
	}
}

func getHandler(cat *catalog.Catalog) mcp.ToolHandlerFor[GetInput, GetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, GetResult, error) {
		view, err := cat.View(ctx, strings.TrimSpace(input.MSCID))
		if err != nil {
			return nil, GetResult{}, fmt.Errorf("catalog get failed: %w", err)
		}
		if view.Record.Annulled() {
			return nil, GetResult{}, fmt.Errorf("record %s has been annulled", view.Record.ID)
		}
		return nil, GetResult{
			MSCID:           view.Record.ID.String(),
			Name:            view.Name,
			Series:          view.Record.ID.Table.Series(),
			Conformance:     view.Conformance.String(),
			Document:        view.Record.Data,
			RelatedEntities: view.Entities,
		}, nil
	}
}

// ListInput represents the MCP tool input for series listings.
type ListInput struct {
	Series string `json:"series" jsonschema:"record series (scheme, tool, mapping, organization, endorsement)"`
}

func listTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_list",
		Description: "Lists every record of a series with summary fields",
	}
}

func listHandler(cat *catalog.Catalog) mcp.ToolHandlerFor[ListInput, SearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, SearchResult, error) {
		recs, err := cat.List(ctx, strings.TrimSpace(input.Series))
		if err != nil {
			return nil, SearchResult{}, fmt.Errorf("catalog list failed: %w", err)
		}
		result := SearchResult{}
		for _, rec := range recs {
			if rec.Annulled() {
				continue
			}
			result.Total++
			result.Records = append(result.Records, RecordSummary{
				MSCID:       rec.ID.String(),
				Name:        rec.Name(),
				Series:      rec.ID.Table.Series(),
				Description: docSummary(rec.Data),
			})
		}
		return nil, result, nil
	}
}

func thesaurusResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "thesaurus",
		Title:       vocab.SchemeLabel,
		Description: "Readable subject thesaurus as SKOS JSON-LD concepts",
		MIMEType:    "application/ld+json",
		URI:         vocab.SchemeURI,
	}
}

func thesaurusResourceHandler(cat *catalog.Catalog) mcp.ResourceHandler {
	return func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := vocab.SchemeURI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		var payload any
		if uri == vocab.SchemeURI {
			payload = schemePayload(cat.Thesaurus())
		} else {
			concept, err := cat.Thesaurus().Concept(uri)
			if err != nil {
				return nil, err
			}
			payload = concept
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal thesaurus payload: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      uri,
				MIMEType: "application/ld+json",
				Text:     string(data),
			}},
		}, nil
	}
}

func schemePayload(th *vocab.Thesaurus) map[string]any {
	tops := make([]any, 0)
	for _, node := range th.Tree() {
		tops = append(tops, map[string]any{"@id": node.URI})
	}
	return map[string]any{
		"@context": map[string]any{
			"skos": "http://www.w3.org/2004/02/skos/core#",
		},
		"@id":   vocab.SchemeURI,
		"@type": "skos:ConceptScheme",
		"skos:prefLabel": []any{
			map[string]any{"@value": vocab.SchemeLabel, "@language": "en"},
		},
		"skos:hasTopConcept": tops,
	}
}

func docSummary(doc map[string]any) string {
	text, _ := doc["description"].(string)
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > 200 {
		text = string(runes[:200]) + "…"
	}
	return text
}
