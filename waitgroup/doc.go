// Package waitgroup implements a bidirectional counter for dynamic task
// tracking (spec.md §3/§4.8): Add may increase or decrease the count,
// Done is Add(-1), and every Wait completes the moment count transitions
// to zero. Add is itself posted through the serializer (not a bare
// atomic) specifically so it serializes against concurrent Wait
// registration, closing the add-after-wait race spec.md calls out.
package waitgroup
