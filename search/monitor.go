package search

import (
	"github.com/poiesic/enricher/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query *Query)
	AfterSemanticSearch(matches []*core.SimilarityMatch)
	AfterKeywordSearch(refs []core.Ref)
	AfterDocumentRetrieval(docs []*core.SearchDocument)
	SemanticAndKeywordHit(doc *core.SearchDocument)
	SemanticHit(doc *core.SearchDocument)
	KeywordHit(doc *core.SearchDocument)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *Query)                                  {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.SimilarityMatch)   {}
func (n *noopMonitor) AfterKeywordSearch(_ []core.Ref)                 {}
func (n *noopMonitor) AfterDocumentRetrieval(_ []*core.SearchDocument) {}
func (n *noopMonitor) SemanticAndKeywordHit(_ *core.SearchDocument)    {}
func (n *noopMonitor) SemanticHit(_ *core.SearchDocument)              {}
func (n *noopMonitor) KeywordHit(_ *core.SearchDocument)               {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                   {}
