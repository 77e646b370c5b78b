// Package tagger holds the three consumers of published analysis
// artifacts: the classification tagger behind syntax highlighting, the
// error tagger behind squiggles, and the outlining tagger behind code
// folding. Each implements the analysis package's consumer capability
// and reads the annotation store on its own schedule; the orchestrator
// only tells it when the tags inside an extent changed.
//
// Rendering itself is out of scope here: taggers model consumer state
// (styles per line, live squiggles, collapse state) for whatever chrome
// sits above them.
package tagger
