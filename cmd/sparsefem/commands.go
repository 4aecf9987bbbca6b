package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sparsefem/sparsefem/internal/assemble"
	"github.com/sparsefem/sparsefem/internal/flow"
	"github.com/sparsefem/sparsefem/internal/loader"
	"github.com/sparsefem/sparsefem/internal/mesh"
	"github.com/sparsefem/sparsefem/internal/parallel"
	"github.com/sparsefem/sparsefem/internal/serialization"
	"github.com/sparsefem/sparsefem/internal/solve"
	"github.com/sparsefem/sparsefem/internal/tensor"
)

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// sfemExt marks binary sparse tensor files; anything else is read as a text table.
const sfemExt = ".sfem"

// loadTensor reads a text table or, for .sfem files, the tensor called name
// (the only tensor when name is empty).
func loadTensor(path, name string) (*tensor.Tensor[float64], error) {
	if filepath.Ext(path) == sfemExt {
		f, err := serialization.Load(path, serialization.ReaderOptions{})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return f.Tensor(name)
	}
	tbl, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return tbl.Tensor()
}

// emit prints t as a nested-brace dump or, with asTable, as a dense table.
func emit(out io.Writer, t *tensor.Tensor[float64], asTable bool) error {
	if asTable {
		return loader.Write(out, t)
	}
	_, err := fmt.Fprintln(out, t)
	return err
}

func runDump(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(out)
	chop := fs.Float64("chop", 0, "Drop entries with |v| <= chop")
	name := fs.String("name", "", "Tensor name inside a .sfem file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("dump takes exactly one table path")
	}

	t, err := loadTensor(fs.Arg(0), *name)
	if err != nil {
		return err
	}
	if *chop > 0 {
		tensor.Chop(t, *chop)
	}
	return emit(out, t, false)
}

func runAssemble(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("assemble", flag.ContinueOnError)
	fs.SetOutput(out)
	elementPath := fs.String("element", "", "Element coefficient table (required)")
	connPath := fs.String("connectivity", "", "Connectivity table, one element dof map per row (required)")
	size := fs.Int("size", 0, "Global number of dofs (required)")
	workers := fs.Int("workers", 0, "Assembly workers (0=number of CPUs, 1=sequential)")
	asTable := fs.Bool("table", false, "Print a dense table instead of the sparse dump")
	output := fs.String("o", "", "Also save the global tensor to a .sfem file")
	verbose := fs.Bool("v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *elementPath == "" {
		return errors.New("-element is required")
	}
	if *connPath == "" {
		return errors.New("-connectivity is required")
	}
	if *size <= 0 {
		return errors.New("-size must be positive")
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	local, err := loadTensor(*elementPath, "")
	if err != nil {
		return err
	}
	connTable, err := loader.LoadFile(*connPath)
	if err != nil {
		return err
	}
	conn, err := assemble.Connectivity(connTable)
	if err != nil {
		return err
	}

	cfg := assemble.DefaultConfig()
	cfg.Logger = logger
	switch {
	case *workers == 1:
		cfg.Parallel = parallel.Sequential()
	case *workers > 1:
		cfg.Parallel.Enabled = true
		cfg.Parallel.NumWorkers = *workers
	}

	a := &assemble.Assembler{Local: local, Config: cfg}
	global, err := a.AssembleAll(*size, conn)
	if err != nil {
		return err
	}
	if *output != "" {
		meta := map[string]string{"element": filepath.Base(*elementPath), "connectivity": filepath.Base(*connPath)}
		if err := serialization.Save(*output, map[string]*tensor.Tensor[float64]{"global": global}, meta); err != nil {
			return err
		}
		logger.Info("saved global tensor", zap.String("path", *output), zap.Int("entries", global.Count()))
	}
	return emit(out, global, *asTable)
}

func runSolve(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("solve", flag.ContinueOnError)
	fs.SetOutput(out)
	matrixPath := fs.String("matrix", "", "Symmetric positive definite matrix table (required)")
	rhsPath := fs.String("rhs", "", "Right-hand side vector table (required)")
	guessPath := fs.String("x0", "", "Initial guess vector table")
	defaults := solve.DefaultConfig()
	tol := fs.Float64("tol", defaults.Tolerance, "Relative residual tolerance")
	maxIter := fs.Int("max-iter", defaults.MaxIterations, "Maximum iterations")
	asTable := fs.Bool("table", false, "Print a dense table instead of the sparse dump")
	verbose := fs.Bool("v", false, "Log every iteration")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *matrixPath == "" {
		return errors.New("-matrix is required")
	}
	if *rhsPath == "" {
		return errors.New("-rhs is required")
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := loadTensor(*matrixPath, "")
	if err != nil {
		return err
	}
	b, err := loadTensor(*rhsPath, "")
	if err != nil {
		return err
	}
	var x0 *tensor.Tensor[float64]
	if *guessPath != "" {
		if x0, err = loadTensor(*guessPath, ""); err != nil {
			return err
		}
	}

	cfg := defaults
	cfg.Tolerance = *tol
	cfg.MaxIterations = *maxIter
	cfg.Logger = logger

	x, res, err := solve.Solve(a, b, x0, cfg)
	if err != nil && !errors.Is(err, solve.ErrNotConverged) {
		return err
	}
	// Stats go out as a comment line so table output stays loadable.
	fmt.Fprintf(out, "# iterations: %d residual: %.3e converged: %t\n",
		res.Iterations, res.Residual, res.Converged)
	if perr := emit(out, x, *asTable); perr != nil {
		return perr
	}
	return err
}

func runChannel(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("channel", flag.ContinueOnError)
	fs.SetOutput(out)
	length := fs.Float64("length", 4, "Channel length")
	height := fs.Float64("height", 1, "Channel height")
	nx := fs.Int("nx", 16, "Elements along the channel")
	ny := fs.Int("ny", 8, "Elements across the channel")
	g := fs.Float64("g", 8, "Pressure gradient over viscosity")
	output := fs.String("o", "", "Save the velocity field to a .sfem file")
	verbose := fs.Bool("v", false, "Log solver iterations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg := flow.DefaultConfig()
	cfg.Logger = logger
	cfg.Assemble.Logger = logger
	cfg.Solve.Logger = logger

	c := mesh.Channel{Length: *length, Height: *height, NX: *nx, NY: *ny}
	sol, err := flow.Poiseuille(c, *g, cfg)
	if err != nil {
		return err
	}
	if *output != "" {
		meta := map[string]string{
			"length": fmt.Sprint(c.Length), "height": fmt.Sprint(c.Height),
			"nx": fmt.Sprint(c.NX), "ny": fmt.Sprint(c.NY), "g": fmt.Sprint(*g),
		}
		if err := serialization.Save(*output, map[string]*tensor.Tensor[float64]{"u": sol.Velocity}, meta); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "# iterations: %d residual: %.3e converged: %t\n",
		sol.Result.Iterations, sol.Result.Residual, sol.Result.Converged)
	ys, us := sol.Profile(c.NX)
	for j := range ys {
		fmt.Fprintf(out, "%g %.10g\n", ys[j], us[j])
	}
	fmt.Fprintf(out, "# flow rate: %.10g\n", sol.FlowRate())
	return nil
}
