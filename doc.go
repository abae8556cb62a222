// Package sources composes, transforms and re-encodes text with source maps.
//
// A client builds an immutable tree of sources (raw text, original files,
// text with an attached source map, concatenations, range replacements and
// memoizing wrappers) and then asks the tree for its combined text, size or
// merged source map. The composition engine walks the tree exactly once,
// shifting every child mapping into the global generated coordinate space and
// resolving positions through chained source maps along the way.
//
// Sources may be shared: the same child may appear under multiple parents,
// and because nodes are never mutated after construction, concurrent reads
// from several composition calls are safe. Wrapping an expensive subtree in
// a CachedSource makes repeated queries reuse the derived text and maps.
//
//	hello := sources.NewOriginalSource("hello\n", "hello.js")
//	world := sources.NewOriginalSource("world\n", "world.js")
//	bundle := sources.NewCachedSource(sources.NewConcatSource(hello, world))
//
//	text, m, err := bundle.TextAndMap(sources.MapOptions{Columns: true})
package sources
