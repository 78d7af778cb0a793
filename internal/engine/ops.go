package engine

import (
	"context"
	"sort"
)

// Group is a set of row indices sharing a key.
type Group[K comparable] struct {
	Key  K
	Rows []int
}

// Partition groups row indices by key. Groups appear in first-seen order and
// indices within a group stay ascending.
func Partition[T any, K comparable](rows []T, key func(T) K) []Group[K] {
	pos := make(map[K]int)
	var groups []Group[K]
	for i, row := range rows {
		k := key(row)
		g, ok := pos[k]
		if !ok {
			g = len(groups)
			pos[k] = g
			groups = append(groups, Group[K]{Key: k})
		}
		groups[g].Rows = append(groups[g].Rows, i)
	}
	return groups
}

// Window partitions rows by key, orders each partition with less and hands the
// ordered partition to fn, which must return one result per row in the same
// order. Results are written back by original row index, so the output is
// aligned with rows. Each partition is one task.
func Window[T any, K comparable, R any](
	ctx context.Context,
	ex Executor,
	rows []T,
	key func(T) K,
	less func(a, b T) bool,
	fn func(ordered []T) []R,
) ([]R, error) {
	if ex == nil {
		return nil, errNoExecutor
	}

	groups := Partition(rows, key)
	out := make([]R, len(rows))

	tasks := make([]Task, 0, len(groups))
	for _, g := range groups {
		g := g
		tasks = append(tasks, func(ctx context.Context) error {
			idx := make([]int, len(g.Rows))
			copy(idx, g.Rows)
			sort.SliceStable(idx, func(a, b int) bool {
				return less(rows[idx[a]], rows[idx[b]])
			})

			ordered := make([]T, len(idx))
			for j, i := range idx {
				ordered[j] = rows[i]
			}

			results := fn(ordered)
			for j, i := range idx {
				out[i] = results[j]
			}
			return ctx.Err()
		})
	}

	if err := ex.Run(ctx, tasks); err != nil {
		return nil, err
	}
	return out, nil
}

// Aggregate reduces every key group to a single value. Each group is routed
// wholly to one task, so no partial results need recombining. Output follows
// the first-seen order of the groups.
func Aggregate[T any, K comparable, A any](
	ctx context.Context,
	ex Executor,
	rows []T,
	key func(T) K,
	agg func(key K, group []T) A,
) ([]A, error) {
	if ex == nil {
		return nil, errNoExecutor
	}

	groups := Partition(rows, key)
	out := make([]A, len(groups))

	tasks := make([]Task, 0, len(groups))
	for gi, g := range groups {
		gi, g := gi, g
		tasks = append(tasks, func(ctx context.Context) error {
			members := make([]T, len(g.Rows))
			for j, i := range g.Rows {
				members[j] = rows[i]
			}
			out[gi] = agg(g.Key, members)
			return ctx.Err()
		})
	}

	if err := ex.Run(ctx, tasks); err != nil {
		return nil, err
	}
	return out, nil
}

// LeftJoin probes every left row against a map built from right. combine
// receives nil when the key has no match; the output keeps the left row count
// and order. When right holds duplicate keys the first occurrence wins.
func LeftJoin[L any, R any, K comparable, O any](
	ctx context.Context,
	ex Executor,
	left []L,
	right []R,
	leftKey func(L) K,
	rightKey func(R) K,
	combine func(l L, r *R) O,
	chunkSize int,
) ([]O, error) {
	if ex == nil {
		return nil, errNoExecutor
	}

	build := make(map[K]int, len(right))
	for i, r := range right {
		k := rightKey(r)
		if _, ok := build[k]; !ok {
			build[k] = i
		}
	}

	out := make([]O, len(left))
	spans := chunks(len(left), chunkSize)
	tasks := make([]Task, 0, len(spans))
	for _, s := range spans {
		s := s
		tasks = append(tasks, func(ctx context.Context) error {
			for i := s.lo; i < s.hi; i++ {
				var match *R
				if j, ok := build[leftKey(left[i])]; ok {
					match = &right[j]
				}
				out[i] = combine(left[i], match)
			}
			return ctx.Err()
		})
	}

	if err := ex.Run(ctx, tasks); err != nil {
		return nil, err
	}
	return out, nil
}

// Filter returns the rows satisfying pred, preserving order.
func Filter[T any](ctx context.Context, ex Executor, rows []T, pred func(T) bool, chunkSize int) ([]T, error) {
	if ex == nil {
		return nil, errNoExecutor
	}

	spans := chunks(len(rows), chunkSize)
	kept := make([][]T, len(spans))
	tasks := make([]Task, 0, len(spans))
	for si, s := range spans {
		si, s := si, s
		tasks = append(tasks, func(ctx context.Context) error {
			var part []T
			for i := s.lo; i < s.hi; i++ {
				if pred(rows[i]) {
					part = append(part, rows[i])
				}
			}
			kept[si] = part
			return ctx.Err()
		})
	}

	if err := ex.Run(ctx, tasks); err != nil {
		return nil, err
	}

	var out []T
	for _, part := range kept {
		out = append(out, part...)
	}
	return out, nil
}
