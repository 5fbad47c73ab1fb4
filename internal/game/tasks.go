package game

import (
	"math/rand/v2"

	"impostor-irl/internal/catalog"
	"impostor-irl/internal/ids"
)

// templateKey identifies a template within a round's catalog for usage caps.
type templateKey struct {
	Category string
	Index    int
}

type assignment struct {
	tasks map[string][]Task
	usage map[templateKey]int
}

// assignTasks builds every player's task list for one round. Shared
// categories are drawn once and handed to everyone. Other categories are
// drawn per player, one slot at a time, honouring per-template caps; a slot
// with no eligible template is skipped.
func assignTasks(rng *rand.Rand, cat *catalog.Catalog, counts map[string]int, players []*Player) assignment {
	out := assignment{
		tasks: make(map[string][]Task, len(players)),
		usage: map[templateKey]int{},
	}
	order := make([]*Player, len(players))
	copy(order, players)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	for _, category := range cat.Categories {
		count, ok := counts[category.Name]
		if !ok {
			count = category.Count
		}
		if count <= 0 || len(category.Templates) == 0 {
			continue
		}
		if category.Shared {
			picks := drawShared(rng, len(category.Templates), count)
			for _, p := range order {
				for _, idx := range picks {
					out.tasks[p.ID] = append(out.tasks[p.ID], newTask(category, idx))
				}
			}
			continue
		}
		for _, p := range order {
			held := map[int]bool{}
			for slot := 0; slot < count; slot++ {
				idx, ok := pickTemplate(rng, category, out.usage, held)
				if !ok {
					continue
				}
				held[idx] = true
				if category.Templates[idx].Capped() {
					out.usage[templateKey{Category: category.Name, Index: idx}]++
				}
				out.tasks[p.ID] = append(out.tasks[p.ID], newTask(category, idx))
			}
		}
	}
	return out
}

// drawShared picks count template indexes without replacement, topping up
// with replacement when the pool is smaller than count.
func drawShared(rng *rand.Rand, poolSize, count int) []int {
	if count <= poolSize {
		return rng.Perm(poolSize)[:count]
	}
	picks := rng.Perm(poolSize)
	for len(picks) < count {
		picks = append(picks, rng.IntN(poolSize))
	}
	return picks
}

// pickTemplate prefers templates the player does not hold yet, falling back
// to repeats, and never exceeds a template's cap.
func pickTemplate(rng *rand.Rand, category catalog.Category, usage map[templateKey]int, held map[int]bool) (int, bool) {
	var fresh, repeats []int
	for i, tpl := range category.Templates {
		if tpl.Capped() && usage[templateKey{Category: category.Name, Index: i}] >= tpl.MaxHolders {
			continue
		}
		if held[i] {
			repeats = append(repeats, i)
		} else {
			fresh = append(fresh, i)
		}
	}
	switch {
	case len(fresh) > 0:
		return fresh[rng.IntN(len(fresh))], true
	case len(repeats) > 0:
		return repeats[rng.IntN(len(repeats))], true
	default:
		return 0, false
	}
}

func newTask(category catalog.Category, idx int) Task {
	return Task{
		ID:       category.Name + ":" + ids.NewID(),
		Category: category.Name,
		Name:     category.Templates[idx].Name,
	}
}
