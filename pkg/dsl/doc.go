/*
Package dsl builds workflow definitions in Go instead of YAML or JSON files.

	b := dsl.New("qa")

	b.Add("start").
		Input(map[string]string{"query": "string"}).
		To("search", "answer")

	b.Add("search").
		Retriever("VI1", 3).
		To("answer")

	b.Add("answer").
		LLM("gpt-4o-mini", "Answer {{.start.query}} using {{.search.results}}")

	def, err := b.Build()
	// ... pass def to spindle.Engine.Run
*/
package dsl
