// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package pipeline answers questions from live web search results.
//
// A run moves through a fixed sequence of stages:
//
//   - QueryGeneration: the chat model rewrites the question into a few
//     diverse search queries (see ParseSubQueries)
//   - Retrieval: every query is searched concurrently on the executor
//   - Extraction (optional): result pages are fetched and summarized
//   - Reranking: documents are embedded and filtered by similarity to
//     the question (see Rerank)
//   - Synthesis: the chat model streams an answer grounded in the sources
//
// Every external call goes through the perf.Manager: searches, page
// summaries and query generation are deduplicated across concurrent runs,
// each call class gets an adaptive timeout, and search results, page
// summaries and final answers are cached.
//
// Stages degrade rather than fail where a fallback exists. A failed search
// or page is left out, a failed query generation falls back to the original
// question, and a failed embedding call keeps the documents unranked. Only
// synthesis failures, invalid requests and cancellation end a run with an
// error.
//
// # Usage
//
//	p, err := pipeline.NewPipeline(provider, searcher, manager,
//	    pipeline.WithFetcher(fetcher),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for ev := range p.Run(ctx, pipeline.Request{Query: "What is photosynthesis?"}) {
//	    switch ev.Type {
//	    case core.EventAnswerChunk:
//	        fmt.Print(ev.Message)
//	    case core.EventError:
//	        log.Print(ev.Err)
//	    }
//	}
package pipeline
