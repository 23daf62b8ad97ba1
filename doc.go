// Package facetsearch embeds a faceted search widget coordinator in a Go
// program.
//
// A Widget keeps the search intent of one widget instance (query, facet
// selections, sort and page), compiles it into an Elasticsearch
// function_score document and runs debounced, cancellable searches
// against the configured endpoint. Only the latest search outcome is
// ever applied.
//
// # Basic use
//
//	w, _ := facetsearch.New(
//	    facetsearch.WithEndpoint("http://localhost:9200/articles/_search"),
//	)
//	defer w.Close()
//
//	updates, stop := w.Subscribe()
//	defer stop()
//
//	_ = w.Dispatch(ctx, facetsearch.SetQuery{Text: "renewable energy"})
//	_ = w.Dispatch(ctx, facetsearch.AddFacet("type", "article"))
//
//	for snap := range updates {
//	    if !snap.IsLoading {
//	        fmt.Println(snap.TotalResults)
//	    }
//	}
//
// # Settings
//
// Settings are overrides over the built-in defaults; nil fields keep the
// default:
//
//	per := 20
//	w, _ := facetsearch.New(
//	    facetsearch.WithEndpoint(url),
//	    facetsearch.WithSettings(facetsearch.Settings{ResultsPerPage: &per}),
//	)
package facetsearch
