package mip

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	simplexTol = 1e-7
	intTol     = 1e-6
	boundSlack = 1e-9
)

// lpSolve points to the simplex entry point. Tests override it to simulate
// solver failures.
var lpSolve = lp.Simplex

// Solve runs branch-and-bound to a proven optimum. It returns ErrInfeasible
// when no binary assignment satisfies the constraints.
func (m *Model) Solve() (*Solution, error) {
	if m.nVar == 0 {
		return &Solution{}, nil
	}

	type node struct {
		lb, ub []float64
	}
	root := node{lb: make([]float64, m.nVar), ub: make([]float64, m.nVar)}
	for i := range root.ub {
		root.ub[i] = 1
	}

	incumbent := math.Inf(1)
	var best []float64
	stack := []node{root}

	for len(stack) > 0 {
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		obj, x, err := m.relax(nd.lb, nd.ub)
		if err != nil {
			// Infeasible subproblem, or a numerically degenerate relaxation:
			// either way the subtree holds no usable optimum.
			continue
		}
		if obj >= incumbent-boundSlack {
			continue
		}

		branchVar := -1
		maxFrac := intTol
		for i, v := range x {
			f := v - math.Floor(v)
			if f > 0.5 {
				f = 1 - f
			}
			if f > maxFrac {
				maxFrac = f
				branchVar = i
			}
		}
		if branchVar == -1 {
			incumbent = obj
			best = make([]float64, m.nVar)
			for i, v := range x {
				best[i] = math.Round(v)
			}
			continue
		}

		down := node{lb: append([]float64(nil), nd.lb...), ub: append([]float64(nil), nd.ub...)}
		down.ub[branchVar] = 0
		up := node{lb: append([]float64(nil), nd.lb...), ub: append([]float64(nil), nd.ub...)}
		up.lb[branchVar] = 1
		// explore the branch nearest the fractional value first
		if x[branchVar] >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	if best == nil {
		return nil, ErrInfeasible
	}
	return &Solution{Objective: incumbent, Values: best}, nil
}

// relax solves the LP relaxation with the given variable bounds. The general
// form is converted to standard form for the simplex solver; original
// variables are recovered from their positive/negative split.
func (m *Model) relax(lb, ub []float64) (float64, []float64, error) {
	n := m.nVar
	var nLE, nEQ int
	for _, c := range m.cons {
		if c.Sense == Equal {
			nEQ++
		} else {
			nLE++
		}
	}

	g := mat.NewDense(nLE+2*n, n, nil)
	h := make([]float64, nLE+2*n)
	var a *mat.Dense
	var b []float64
	if nEQ > 0 {
		a = mat.NewDense(nEQ, n, nil)
		b = make([]float64, nEQ)
	}

	le, eq := 0, 0
	for _, c := range m.cons {
		if c.Sense == Equal {
			for v, coeff := range c.Coeffs {
				a.Set(eq, v, coeff)
			}
			b[eq] = c.RHS
			eq++
			continue
		}
		for v, coeff := range c.Coeffs {
			g.Set(le, v, coeff)
		}
		h[le] = c.RHS
		le++
	}
	// variable bounds: x_i <= ub_i and -x_i <= -lb_i
	for i := 0; i < n; i++ {
		g.Set(nLE+2*i, i, 1)
		h[nLE+2*i] = ub[i]
		g.Set(nLE+2*i+1, i, -1)
		h[nLE+2*i+1] = -lb[i]
	}

	var aM mat.Matrix
	if a != nil {
		aM = a
	}
	cStd, aStd, bStd := lp.Convert(m.obj, g, h, aM, b)
	obj, xStd, err := lpSolve(cStd, aStd, bStd, simplexTol, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return 0, nil, ErrInfeasible
		}
		return 0, nil, err
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = xStd[i] - xStd[n+i]
	}
	return obj, x, nil
}
