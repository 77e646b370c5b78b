// Package analysis runs the background re-analysis pipeline.
//
// The [Orchestrator] is the single producer of analysis passes for
// one buffer. Each content change mints a fresh [tracking.Span],
// resets the annotation store to sentinel artifacts, and hands the
// pass to a worker [Pool]. The heavy work (parse, classify, resolve
// diagnostics, resolve structure) runs fully off the producer's
// goroutine; a pass that is superseded mid-flight keeps computing but
// is refused at publication.
//
// Effect gating is by identity: every side effect (store write,
// completion event, consumer notification) checks that the pass's
// span is still the current one at the moment of the effect. There is
// no cooperative cancellation and no sequence numbering; the current
// pointer is swapped synchronously on the producer before dispatch,
// so "last handle wins" holds regardless of completion order.
//
// External collaborators plug in behind small interfaces: [Analyzer],
// [Classifier], [DiagnosticsResolver], [StructureResolver]. Consumers
// (highlighter, diagnostics tagger, outliner) self-register in the
// [Registry] and are notified in fixed kind order after each publish.
package analysis
