package integrators

import "github.com/san-kum/axisctl/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta integrator. A control period
// can be split into Substeps smaller steps with the control held constant,
// which keeps the motor's mechanical pole resolved at coarse tick rates.
type RK4 struct {
	Substeps int

	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{Substeps: 1}
}

// NewSubsteppedRK4 returns an RK4 that takes n steps per call.
func NewSubsteppedRK4(n int) *RK4 {
	if n < 1 {
		n = 1
	}
	return &RK4{Substeps: n}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := r.Substeps
	if n < 1 {
		n = 1
	}
	h := dt / float64(n)
	result := x.Clone()
	for i := 0; i < n; i++ {
		result = r.step(dyn, result, u, t+float64(i)*h, h)
	}
	return result
}

func (r *RK4) step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k1, dyn.Derive(x, u, t))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	copy(r.k2, dyn.Derive(r.scratch, u, t+dt*0.5))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	copy(r.k3, dyn.Derive(r.scratch, u, t+dt*0.5))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	copy(r.k4, dyn.Derive(r.scratch, u, t+dt))

	out := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		out[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return out
}
