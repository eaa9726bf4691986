/*
Package spindle runs directed acyclic workflows of typed, schema-validated nodes.

A workflow is a graph of node instances. Each node declares the shape of the data
it accepts and produces; every invocation validates its input before running its
logic and validates what the logic returns before handing it downstream. Nodes
with several predecessors receive one composite record keyed by the predecessor
graph ids, so two upstream nodes of the same type never collide.

# Concept

Node types are registered with a descriptor (name, category, visual tag and shape
templates) and a factory. The built-in types are:

  - input_node: the entry point, shaped by its configured output schema.
  - merge_node: combines predecessor outputs into one record.
  - retriever_node: similarity search against a vector index.
  - single_llm_call: renders a prompt template and calls a chat model.

Runs are executed layer by layer. Independent nodes of a layer run concurrently,
and every run and task is persisted so a paused or failed run can be resumed
without invoking the nodes that already completed.

# Usage

	eng := spindle.New(
		spindle.WithRetrieval(indices, searcher),
		spindle.WithChatCompleter(client),
	)

	res, err := eng.RunFile(ctx, "rag.yaml", map[string]any{"query": "What is a spindle?"})
	if err != nil {
		log.Fatal(err)
	}
	answer, _ := res.Output("answer")
	fmt.Println(answer.Dump())

Adapters for Redis (run store and locks), PostgreSQL with pgvector, Weaviate and
OpenAI live under pkg/adapters.
*/
package spindle
