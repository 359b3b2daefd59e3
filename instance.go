package mlr

import (
	"math"
	"math/rand"
	"sort"

	"github.com/xtgo/set"

	"github.com/mikimaus78/mlr/task"
)

// Instance is a description materialised against a concrete dataset size: an
// ordered sequence of train/test index pairs, plus the grouping vector used by
// group-aware aggregation. Within one pair the sets are disjoint, except for
// the multiplicity of bootstrap training draws.
type Instance struct {
	Description Description `json:"description"`
	Size        int         `json:"size"`
	TrainSets   [][]int     `json:"train"`
	TestSets    [][]int     `json:"test"`
	Groups      []string    `json:"groups,omitempty"`
}

// Iterations returns the number of train/test pairs in the instance.
func (in *Instance) Iterations() int {
	return len(in.TestSets)
}

// Materialise validates the instance against a task, making an
// already-instantiated plan usable wherever a description is.
func (in *Instance) Materialise(t *task.Task) (*Instance, error) {
	if in.Size != t.Size() {
		return nil, configErrorf("resampling instance was built for %d rows but task %s has %d", in.Size, t.Name(), t.Size())
	}
	if len(in.TrainSets) != len(in.TestSets) || len(in.TestSets) == 0 {
		return nil, configErrorf("instance must hold the same non-zero number of train and test sets")
	}
	for i := range in.TestSets {
		for _, sets := range [][]int{in.TrainSets[i], in.TestSets[i]} {
			for _, idx := range sets {
				if idx < 0 || idx >= in.Size {
					return nil, configErrorf("iteration %d holds index %d, outside [0,%d)", i+1, idx, in.Size)
				}
			}
		}
	}
	if in.Groups == nil {
		in.Groups = t.Groups()
	}
	return in, nil
}

type instantiation struct {
	rng    *rand.Rand
	strata []string
	groups []string
}

// InstanceOption configures how a description is instantiated.
type InstanceOption func(*instantiation)

// InstanceRand supplies the random source used during instantiation. Without
// it the ambient math/rand source is used; callers requiring reproducibility
// supply a seeded source here.
func InstanceRand(r *rand.Rand) InstanceOption {
	return func(n *instantiation) {
		n.rng = r
	}
}

// InstanceStrata supplies the stratification vector for stratified
// descriptions, one level per row.
func InstanceStrata(strata []string) InstanceOption {
	return func(n *instantiation) {
		n.strata = strata
	}
}

// InstanceGroups supplies a blocking vector, one group id per row. All rows
// of a group end up in the same fold for CV-style methods, and the vector is
// carried on the instance for grouped aggregation.
func InstanceGroups(groups []string) InstanceOption {
	return func(n *instantiation) {
		n.groups = groups
	}
}

func (n *instantiation) perm(size int) []int {
	if n.rng != nil {
		return n.rng.Perm(size)
	}
	return rand.Perm(size)
}

func (n *instantiation) intn(size int) int {
	if n.rng != nil {
		return n.rng.Intn(size)
	}
	return rand.Intn(size)
}

func (n *instantiation) shuffle(size int, swap func(i, j int)) {
	if n.rng != nil {
		n.rng.Shuffle(size, swap)
		return
	}
	rand.Shuffle(size, swap)
}

// Instantiate materialises a description for a dataset of the given size.
// All parameter validation happens here, before any iteration can run.
func Instantiate(d Description, size int, options ...InstanceOption) (*Instance, error) {
	n := &instantiation{}
	for _, option := range options {
		option(n)
	}

	if size <= 0 {
		return nil, configErrorf("dataset size must be positive, got %d", size)
	}
	if n.strata != nil && len(n.strata) != size {
		return nil, configErrorf("stratification vector has %d entries for %d rows", len(n.strata), size)
	}
	if n.groups != nil && len(n.groups) != size {
		return nil, configErrorf("grouping vector has %d entries for %d rows", len(n.groups), size)
	}
	if d.Stratify && n.strata == nil {
		return nil, configErrorf("%s requested stratification but no stratification vector was supplied", d.Method)
	}
	if d.Stratify && n.groups != nil {
		return nil, configErrorf("stratification and blocking cannot be combined")
	}

	in := &Instance{
		Description: d,
		Size:        size,
		Groups:      n.groups,
	}

	var err error
	switch d.Method {
	case Holdout:
		err = in.holdout(n, 1, d.Split)
	case Subsample:
		if d.Iters < 1 {
			return nil, configErrorf("subsampling needs at least one iteration, got %d", d.Iters)
		}
		err = in.holdout(n, d.Iters, d.Split)
	case CV:
		err = in.crossValidation(n, 1, d.Folds)
	case RepCV:
		if d.Reps < 1 {
			return nil, configErrorf("repeated cross-validation needs at least one repetition, got %d", d.Reps)
		}
		err = in.crossValidation(n, d.Reps, d.Folds)
	case LOO:
		in.leaveOneOut()
	case Bootstrap:
		if d.Iters < 1 {
			return nil, configErrorf("bootstrapping needs at least one iteration, got %d", d.Iters)
		}
		in.bootstrap(n)
	default:
		return nil, configErrorf("unknown resampling method %q", d.Method)
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

// complement returns the sorted indices of [0,size) not contained in test.
func complement(size int, test []int) []int {
	data := make(sort.IntSlice, 0, size+len(test))
	for i := 0; i < size; i++ {
		data = append(data, i)
	}
	t := append([]int(nil), test...)
	sort.Ints(t)
	data = append(data, t...)
	sz := set.Diff(data, size)
	return append([]int(nil), data[:sz]...)
}

func (in *Instance) holdout(n *instantiation, iters int, split float64) error {
	if split <= 0 || split >= 1 {
		return configErrorf("training split must lie in (0,1), got %f", split)
	}

	for iter := 0; iter < iters; iter++ {
		var train []int
		if in.Description.Stratify {
			for _, members := range strataMembers(n.strata) {
				if len(members) < 2 {
					return configErrorf("stratum %q has fewer than two observations", n.strata[members[0]])
				}
				n.shuffle(len(members), func(i, j int) {
					members[i], members[j] = members[j], members[i]
				})
				k := int(math.Round(split * float64(len(members))))
				if k < 1 {
					k = 1
				}
				if k > len(members)-1 {
					k = len(members) - 1
				}
				train = append(train, members[:k]...)
			}
		} else {
			perm := n.perm(in.Size)
			k := int(math.Round(split * float64(in.Size)))
			if k < 1 || k > in.Size-1 {
				return configErrorf("training split %f leaves an empty train or test set for %d rows", split, in.Size)
			}
			train = perm[:k]
		}
		in.TrainSets = append(in.TrainSets, train)
		in.TestSets = append(in.TestSets, complement(in.Size, train))
	}
	return nil
}

func (in *Instance) crossValidation(n *instantiation, reps, folds int) error {
	if folds < 2 {
		return configErrorf("cross-validation needs at least two folds, got %d", folds)
	}
	if folds > in.Size {
		return configErrorf("cannot split %d rows into %d folds", in.Size, folds)
	}

	for rep := 0; rep < reps; rep++ {
		var test [][]int
		switch {
		case in.Description.Stratify:
			t, err := stratifiedFolds(n, folds)
			if err != nil {
				return err
			}
			test = t
		case n.groups != nil:
			t, err := blockedFolds(n, folds)
			if err != nil {
				return err
			}
			test = t
		default:
			test = plainFolds(n, in.Size, folds)
		}
		for _, fold := range test {
			in.TestSets = append(in.TestSets, fold)
			in.TrainSets = append(in.TrainSets, complement(in.Size, fold))
		}
	}
	return nil
}

// plainFolds deals a shuffled permutation into folds whose sizes differ by at
// most one; the first size%folds folds take the extra observations.
func plainFolds(n *instantiation, size, folds int) [][]int {
	perm := n.perm(size)
	test := make([][]int, folds)
	base, extra := size/folds, size%folds
	at := 0
	for f := 0; f < folds; f++ {
		sz := base
		if f < extra {
			sz++
		}
		test[f] = perm[at : at+sz]
		at += sz
	}
	return test
}

// stratifiedFolds deals each stratum's shuffled members into folds using a
// single counter across strata, so leftover observations spread across folds
// instead of piling up in the first one.
func stratifiedFolds(n *instantiation, folds int) ([][]int, error) {
	test := make([][]int, folds)
	next := 0
	for _, members := range strataMembers(n.strata) {
		if len(members) < folds {
			return nil, configErrorf("stratum %q has %d observations for %d folds", n.strata[members[0]], len(members), folds)
		}
		n.shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		for _, row := range members {
			test[next%folds] = append(test[next%folds], row)
			next++
		}
	}
	return test, nil
}

// blockedFolds deals whole groups into folds so that no group is split across
// the train and test side of an iteration.
func blockedFolds(n *instantiation, folds int) ([][]int, error) {
	members := strataMembers(n.groups)
	if len(members) < folds {
		return nil, configErrorf("%d groups cannot fill %d folds", len(members), folds)
	}
	n.shuffle(len(members), func(i, j int) {
		members[i], members[j] = members[j], members[i]
	})
	test := make([][]int, folds)
	for g, rows := range members {
		test[g%folds] = append(test[g%folds], rows...)
	}
	return test, nil
}

// strataMembers collects the row indices per level, levels ordered by first
// appearance.
func strataMembers(strata []string) [][]int {
	index := make(map[string]int)
	var members [][]int
	for row, level := range strata {
		i, ok := index[level]
		if !ok {
			i = len(members)
			index[level] = i
			members = append(members, nil)
		}
		members[i] = append(members[i], row)
	}
	return members
}

func (in *Instance) leaveOneOut() {
	for i := 0; i < in.Size; i++ {
		in.TestSets = append(in.TestSets, []int{i})
		in.TrainSets = append(in.TrainSets, complement(in.Size, []int{i}))
	}
}

func (in *Instance) bootstrap(n *instantiation) {
	for iter := 0; iter < in.Description.Iters; iter++ {
		train := make([]int, in.Size)
		for i := range train {
			train[i] = n.intn(in.Size)
		}

		// The out-of-bag test set is the complement of the unique draws.
		drawn := make(sort.IntSlice, len(train))
		copy(drawn, train)
		sort.Ints(drawn)
		drawn = drawn[:set.Uniq(drawn)]

		in.TrainSets = append(in.TrainSets, train)
		in.TestSets = append(in.TestSets, complement(in.Size, drawn))
	}
}

// Materialise instantiates the description against the task, taking the
// stratification vector from the task targets and any blocking groups from
// the task itself.
func (d Description) Materialise(t *task.Task) (*Instance, error) {
	var options []InstanceOption
	if d.Stratify {
		options = append(options, InstanceStrata(t.Strata()))
	}
	if g := t.Groups(); g != nil {
		options = append(options, InstanceGroups(g))
	}
	return Instantiate(d, t.Size(), options...)
}
