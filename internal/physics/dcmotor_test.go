package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/axisctl/internal/dynamo"
)

func TestDCMotorStallTorque(t *testing.T) {
	m := NewDCMotor()
	x := dynamo.State{0, 0}

	got := m.Torque(x, dynamo.Control{m.PWMMax})
	want := m.TorqueConst * m.Supply / m.Resistance
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("stall torque = %f, want %f", got, want)
	}
}

func TestDCMotorDutyClipped(t *testing.T) {
	m := NewDCMotor()
	x := dynamo.State{0, 0}

	full := m.Torque(x, dynamo.Control{m.PWMMax})
	over := m.Torque(x, dynamo.Control{10 * m.PWMMax})
	if full != over {
		t.Errorf("expected clipping, got %f vs %f", full, over)
	}
	if !m.Saturated(dynamo.Control{-m.PWMMax}) {
		t.Error("expected negative limit to count as saturated")
	}
	if m.Saturated(dynamo.Control{0.5 * m.PWMMax}) {
		t.Error("half duty should not be saturated")
	}
}

func TestDCMotorBackEMF(t *testing.T) {
	m := NewDCMotor()
	// free-running speed at full duty with no friction
	m.Damping = 0
	omega := m.Supply / m.TorqueConst

	tq := m.Torque(dynamo.State{0, omega}, dynamo.Control{m.PWMMax})
	if math.Abs(tq) > 1e-9 {
		t.Errorf("expected zero torque at no-load speed, got %g", tq)
	}
}

func TestDCMotorDerive(t *testing.T) {
	m := NewDCMotor()
	m.Stiffness = 2.0

	dx := m.Derive(dynamo.State{0.5, 1.0}, dynamo.Control{0}, 0)
	if dx[0] != 1.0 {
		t.Errorf("dθ = %f, want 1.0", dx[0])
	}
	if dx[1] >= 0 {
		t.Errorf("unpowered, displaced and moving axis should decelerate, got %f", dx[1])
	}
}

func TestDCMotorEnergy(t *testing.T) {
	m := NewDCMotor()
	m.Stiffness = 4.0

	e := m.Energy(dynamo.State{1.0, 2.0})
	want := 0.5*m.Inertia*4 + 0.5*4.0
	if math.Abs(e-want) > 1e-12 {
		t.Errorf("energy = %f, want %f", e, want)
	}
}

func TestDCMotorParams(t *testing.T) {
	m := NewDCMotor()

	if err := m.SetParam("stiffness", 3); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if m.GetParams()["stiffness"] != 3 {
		t.Error("stiffness not applied")
	}
	if err := m.SetParam("inertia", 0); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected bounds error, got %v", err)
	}
	if err := m.SetParam("flux", 1); !errors.Is(err, dynamo.ErrUnknownParameter) {
		t.Errorf("expected unknown parameter error, got %v", err)
	}
}
