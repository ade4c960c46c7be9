// Package mip provides a small exact solver for 0-1 integer programs. Linear
// relaxations are solved with gonum's simplex implementation and integrality
// is restored by branch-and-bound on fractional variables.
package mip

import "errors"

// Sense is the relational operator of a constraint.
type Sense int

const (
	// LessEq constrains coeffs·x <= rhs.
	LessEq Sense = iota
	// Equal constrains coeffs·x == rhs.
	Equal
)

// ErrInfeasible is returned when no 0-1 assignment satisfies all constraints.
var ErrInfeasible = errors.New("mip: infeasible")

// Constraint is a sparse linear constraint over the model's variables.
type Constraint struct {
	Coeffs map[int]float64
	Sense  Sense
	RHS    float64
}

// Model is a 0-1 integer program: minimize obj·x subject to the added
// constraints, x binary.
type Model struct {
	nVar int
	obj  []float64
	cons []Constraint
}

// NewModel returns an empty model.
func NewModel() *Model { return &Model{} }

// AddBinary declares a new binary variable and returns its index.
func (m *Model) AddBinary() int {
	m.obj = append(m.obj, 0)
	m.nVar++
	return m.nVar - 1
}

// NumVars returns the number of declared variables.
func (m *Model) NumVars() int { return m.nVar }

// SetObjective sets the minimization coefficient of a variable.
func (m *Model) SetObjective(v int, coeff float64) { m.obj[v] = coeff }

// AddConstraint appends a sparse constraint. The coefficient map is not
// copied; callers must not mutate it afterwards.
func (m *Model) AddConstraint(coeffs map[int]float64, sense Sense, rhs float64) {
	m.cons = append(m.cons, Constraint{Coeffs: coeffs, Sense: sense, RHS: rhs})
}

// Solution is an optimal integral assignment.
type Solution struct {
	Objective float64
	Values    []float64 // 0 or 1 per variable
}
