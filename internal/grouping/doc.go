// Package grouping splits weighted items into consecutive groups that each
// reach a target weight.
//
// The partitioner is a single-pass greedy heuristic: items are ordered by
// weight (stable, descending), each group is seeded with the heaviest
// remaining item and then grown with whichever remaining item brings the
// running total closest to the target, until the total reaches the target or
// the items run out. Only the final group may fall short. The result is
// deterministic for a given input order and is not guaranteed to be optimal.
package grouping
