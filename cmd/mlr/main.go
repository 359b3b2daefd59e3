package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alexflint/go-arg"

	"github.com/mikimaus78/mlr"
	"github.com/mikimaus78/mlr/learner"
	"github.com/mikimaus78/mlr/measure"
	"github.com/mikimaus78/mlr/output"
	"github.com/mikimaus78/mlr/task"
)

var (
	name    = "mlr"
	version = "30.Aug.2026"
	author  = "mikimaus78"
)

type args struct {
	Data        string   `help:"path to csv dataset with a header row" arg:"required,positional"`
	Target      string   `help:"name of the target column" arg:"required,positional"`
	Learner     string   `help:"learner to resample (featureless.mean/featureless.mode/regr.lm)" arg:"-l"`
	Strategy    string   `help:"resampling strategy (cv/repcv/holdout/loo/bootstrap/subsample)" arg:"-s"`
	Folds       int      `help:"number of folds for cv and repcv" arg:"-k"`
	Reps        int      `help:"number of repetitions for repcv" arg:"-r"`
	Iters       int      `help:"number of iterations for bootstrap and subsample" arg:"-i"`
	Split       float64  `help:"training proportion for holdout and subsample" arg:"-p"`
	Measures    []string `help:"measures to compute (mse/mae/rmse/rsq/acc/mmce)" arg:"-m,separate"`
	Stratify    bool     `help:"stratify folds on the target" arg:"-y"`
	Seed        int64    `help:"seed for reproducible splits (0 uses ambient randomness)"`
	Concurrency int      `help:"number of iterations to run at once" arg:"-j"`
	Store       string   `help:"directory of a result store to archive the result in" arg:"-o"`
}

func (args) Version() string {
	return version
}

func (args) Description() string {
	return fmt.Sprintf(`%s
@ %s
# %s`, name, author, version)
}

type config struct {
	Resample struct {
		Concurrency int    `toml:"concurrency"`
		Store       string `toml:"store"`
	} `toml:"resample"`
}

func learnerFor(name string) (learner.Learner, error) {
	switch name {
	case "", "featureless.mean":
		return learner.NewFeatureless(learner.Mean), nil
	case "featureless.mode":
		return learner.NewFeatureless(learner.Mode), nil
	case "regr.lm":
		return learner.NewLeastSquares(), nil
	}
	return nil, fmt.Errorf("unknown learner %s", name)
}

func measuresFor(names []string) ([]measure.Measure, error) {
	if len(names) == 0 {
		names = []string{"mse"}
	}
	measures := make([]measure.Measure, len(names))
	for i, n := range names {
		switch n {
		case "mse":
			measures[i] = measure.MSE
		case "mae":
			measures[i] = measure.MAE
		case "rmse":
			measures[i] = measure.RMSE
		case "rsq":
			measures[i] = measure.R2
		case "acc":
			measures[i] = measure.Accuracy
		case "mmce":
			measures[i] = measure.MMCE
		default:
			return nil, fmt.Errorf("unknown measure %s", n)
		}
	}
	return measures, nil
}

func descriptionFor(a args) (mlr.Description, error) {
	var d mlr.Description
	switch strings.ToLower(a.Strategy) {
	case "", "cv":
		folds := a.Folds
		if folds == 0 {
			folds = 10
		}
		d = mlr.NewCVDescription(folds)
	case "repcv":
		d = mlr.NewRepCVDescription(a.Reps, a.Folds)
	case "holdout":
		d = mlr.NewHoldoutDescription(a.Split)
	case "loo":
		d = mlr.NewLOODescription()
	case "bootstrap":
		d = mlr.NewBootstrapDescription(a.Iters)
	case "subsample":
		d = mlr.NewSubsampleDescription(a.Iters, a.Split)
	default:
		return d, fmt.Errorf("unknown resampling strategy %s", a.Strategy)
	}
	if a.Stratify {
		d = d.Stratified()
	}
	return d, nil
}

func main() {
	var args args
	arg.MustParse(&args)

	// Defaults can come from a config file in the home directory.
	var c config
	if dir, err := os.UserHomeDir(); err == nil {
		if f, err := os.Open(path.Join(dir, ".mlr.toml")); err == nil {
			if _, err := toml.DecodeReader(f, &c); err != nil {
				log.Fatalln(err)
			}
			f.Close()
		}
	}
	if args.Concurrency == 0 {
		args.Concurrency = c.Resample.Concurrency
	}
	if len(args.Store) == 0 {
		args.Store = c.Resample.Store
	}

	f, err := os.Open(args.Data)
	if err != nil {
		log.Fatalln(err)
	}
	t, err := task.FromCSV(path.Base(args.Data), f, args.Target)
	if err != nil {
		log.Fatalln(err)
	}
	f.Close()

	ln, err := learnerFor(args.Learner)
	if err != nil {
		log.Fatalln(err)
	}
	measures, err := measuresFor(args.Measures)
	if err != nil {
		log.Fatalln(err)
	}
	d, err := descriptionFor(args)
	if err != nil {
		log.Fatalln(err)
	}

	// With a seed the splits are fixed by instantiating up front with a
	// seeded source; otherwise the description is materialised with ambient
	// randomness inside Resample.
	var rs mlr.Resampling = d
	if args.Seed != 0 {
		options := []mlr.InstanceOption{mlr.InstanceRand(rand.New(rand.NewSource(args.Seed)))}
		if d.Stratify {
			options = append(options, mlr.InstanceStrata(t.Strata()))
		}
		if g := t.Groups(); g != nil {
			options = append(options, mlr.InstanceGroups(g))
		}
		in, err := mlr.Instantiate(d, t.Size(), options...)
		if err != nil {
			log.Fatalln(err)
		}
		rs = in
	}

	result, err := mlr.Resample(ln, t, rs, measures,
		mlr.ResampleConcurrency(args.Concurrency),
		mlr.ResampleProgress(true))
	if err != nil {
		log.Fatalln(err)
	}

	s, err := output.JSONResultFormatter(result)
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Println(s)

	if len(args.Store) > 0 {
		store, err := output.NewResultStore(args.Store, 16)
		if err != nil {
			log.Fatalln(err)
		}
		if err := store.Save(result); err != nil {
			log.Fatalln(err)
		}
		log.Printf("archived result %s in %s\n", result.ID, args.Store)
	}
}
