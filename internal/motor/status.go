package motor

// Status is a copy of the controller's state for logging and display.
type Status struct {
	Name                  string  `json:"name"`
	Mode                  Mode    `json:"-"`
	ModeName              string  `json:"mode"`
	MeasuredPosition      float64 `json:"measured_position"`
	MeasuredTorque        float64 `json:"measured_torque"`
	PositionReference     float64 `json:"position_reference"`
	VelocityReference     float64 `json:"velocity_reference"`
	AccelerationReference float64 `json:"acceleration_reference"`
	TorqueReference       float64 `json:"torque_reference"`
	Velocity              float64 `json:"velocity"`
	MaxVelocity           float64 `json:"max_velocity"`
	FakePositionOffset    float64 `json:"fake_position_offset"`
	Stiffness             float64 `json:"stiffness"`
	PositionMin           float64 `json:"position_min"`
	PositionMax           float64 `json:"position_max"`
	VelocityModeTimer     float64 `json:"velocity_mode_timer"`
	VelocityModeTimeout   float64 `json:"velocity_mode_timeout"`
}

func (c *AxisController) Status() Status {
	return Status{
		Name:                  c.name,
		Mode:                  c.mode,
		ModeName:              c.mode.String(),
		MeasuredPosition:      c.measuredPosition,
		MeasuredTorque:        c.measuredTorque,
		PositionReference:     c.positionReference,
		VelocityReference:     c.velocityReference,
		AccelerationReference: c.accelerationReference,
		TorqueReference:       c.torqueReference,
		Velocity:              c.velocity,
		MaxVelocity:           c.maxVelocity,
		FakePositionOffset:    c.fakePositionOffset,
		Stiffness:             c.stiffness,
		PositionMin:           c.positionMin,
		PositionMax:           c.positionMax,
		VelocityModeTimer:     c.velocityModeTimer,
		VelocityModeTimeout:   c.velocityModeTimeout,
	}
}
