package motor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/axisctl/internal/motor"
)

const period = 0.001

var _ = Describe("AxisController", func() {
	var (
		pidP *recordingPID
		pidT *recordingPID
		traj *scriptedTrajectory
		ctrl *motor.AxisController
	)

	BeforeEach(func() {
		pidP = &recordingPID{gain: 100}
		pidT = &recordingPID{gain: 10}
		traj = &scriptedTrajectory{}
		ctrl = motor.New(motor.Config{
			Name:            "j0",
			Period:          period,
			PositionMin:     -10,
			PositionMax:     10,
			MaxVelocity:     5,
			VelocityTimeout: 0.1,
		},
			motor.WithPositionPID(pidP),
			motor.WithTorquePID(pidT),
			motor.WithTrajectory(traj),
		)
	})

	Describe("construction", func() {
		It("starts idle with zeroed references", func() {
			st := ctrl.Status()
			Expect(st.Mode).To(Equal(motor.ModeIdle))
			Expect(st.PositionReference).To(BeZero())
			Expect(st.VelocityReference).To(BeZero())
			Expect(st.Velocity).To(BeZero())
			Expect(st.MeasuredPosition).To(BeZero())
			Expect(st.Name).To(Equal("j0"))
		})

		It("falls back to the nominal period and built-in collaborators", func() {
			c := motor.New(motor.Config{})
			Expect(c.Period()).To(Equal(motor.DefaultPeriod))
			Expect(c.Trajectory()).NotTo(BeNil())
			c.SetControlMode(motor.ModePosition)
			Expect(c.ComputePWM()).To(BeZero())
		})

		It("swaps reversed position limits", func() {
			c := motor.New(motor.Config{PositionMin: 3, PositionMax: -3})
			st := c.Status()
			Expect(st.PositionMin).To(Equal(-3.0))
			Expect(st.PositionMax).To(Equal(3.0))
		})
	})

	Describe("SetVelocityLimit", func() {
		It("stores the magnitude", func() {
			ctrl.SetVelocityLimit(-5.0)
			Expect(ctrl.Status().MaxVelocity).To(Equal(5.0))

			ctrl.SetVelocityLimit(2.5)
			Expect(ctrl.Status().MaxVelocity).To(Equal(2.5))
		})
	})

	Describe("SetControlMode", func() {
		It("always succeeds", func() {
			for _, m := range motor.Modes() {
				Expect(ctrl.SetControlMode(m)).To(BeTrue())
				Expect(ctrl.Mode()).To(Equal(m))
			}
		})
	})

	Describe("SetImpedanceStiffness", func() {
		It("is stored without touching the output", func() {
			ctrl.SetControlMode(motor.ModeImpedancePosition)
			ctrl.SetImpedanceStiffness(12)
			Expect(ctrl.Status().Stiffness).To(Equal(12.0))
			Expect(ctrl.ComputePWM()).To(BeZero())
		})
	})

	Describe("sensor reads", func() {
		It("keeps only the latest value", func() {
			ctrl.ReadPosition(1)
			ctrl.ReadPosition(2)
			ctrl.ReadTorque(-1)
			ctrl.ReadTorque(0.5)
			st := ctrl.Status()
			Expect(st.MeasuredPosition).To(Equal(2.0))
			Expect(st.MeasuredTorque).To(Equal(0.5))
		})
	})

	Describe("SetPositionReference", func() {
		It("clamps the target into the position limits", func() {
			ctrl.SetControlMode(motor.ModePosition)
			Expect(ctrl.SetPositionReference(50, 1)).To(BeTrue())
			Expect(ctrl.Status().PositionReference).To(Equal(10.0))

			Expect(ctrl.SetPositionReference(-50, 1)).To(BeTrue())
			Expect(ctrl.Status().PositionReference).To(Equal(-10.0))
		})

		DescribeTable("is rejected without side effects",
			func(mode motor.Mode) {
				ctrl.SetControlMode(mode)
				ctrl.ReadPosition(1.5)
				before := ctrl.Status()

				Expect(ctrl.SetPositionReference(3, 1)).To(BeFalse())
				Expect(ctrl.Status()).To(Equal(before))
				Expect(traj.seeds).To(BeEmpty())
			},
			Entry("idle", motor.ModeIdle),
			Entry("torque", motor.ModeTorque),
			Entry("open loop", motor.ModeOpenLoop),
		)

		DescribeTable("moves to the matching position mode",
			func(from, to motor.Mode) {
				ctrl.SetControlMode(from)
				Expect(ctrl.SetPositionReference(1, 1)).To(BeTrue())
				Expect(ctrl.Mode()).To(Equal(to))
			},
			Entry("position", motor.ModePosition, motor.ModePosition),
			Entry("velocity", motor.ModeVelocity, motor.ModePosition),
			Entry("impedance position", motor.ModeImpedancePosition, motor.ModeImpedancePosition),
			Entry("impedance velocity", motor.ModeImpedanceVelocity, motor.ModeImpedancePosition),
		)

		It("stores the speed, zeroes the acceleration and seeds the trajectory from the present state", func() {
			ctrl.SetControlMode(motor.ModeVelocity)
			ctrl.SetVelocityReference(2, 1000)
			ctrl.ComputePWM()
			ctrl.ReadPosition(0.25)

			Expect(ctrl.SetPositionReference(20, 3)).To(BeTrue())

			st := ctrl.Status()
			Expect(st.VelocityReference).To(Equal(3.0))
			Expect(st.AccelerationReference).To(BeZero())
			Expect(traj.seeds).To(HaveLen(1))
			Expect(traj.seeds[0]).To(Equal(seed{p0: 0.25, pf: 10, v0: st.Velocity, vf: 3}))
			Expect(st.Velocity).To(BeNumerically("~", 1.0, 1e-12))
		})
	})

	Describe("SetVelocityReference", func() {
		It("clamps the velocity into the velocity limit", func() {
			ctrl.SetVelocityLimit(2)
			ctrl.SetControlMode(motor.ModeVelocity)

			ctrl.SetVelocityReference(5, 1)
			Expect(ctrl.Status().VelocityReference).To(Equal(2.0))

			ctrl.SetVelocityReference(-5, 1)
			Expect(ctrl.Status().VelocityReference).To(Equal(-2.0))
		})

		It("stores the per-tick ramp step as a magnitude", func() {
			ctrl.SetControlMode(motor.ModeVelocity)

			ctrl.SetVelocityReference(1, 2000)
			Expect(ctrl.Status().AccelerationReference).To(BeNumerically("~", 2.0, 1e-12))

			ctrl.SetVelocityReference(1, -2000)
			Expect(ctrl.Status().AccelerationReference).To(BeNumerically("~", 2.0, 1e-12))
		})

		It("ramps toward the reference when the acceleration is negative", func() {
			ctrl.SetControlMode(motor.ModeVelocity)
			ctrl.SetVelocityReference(1, -500)

			ctrl.ComputePWM()
			Expect(ctrl.Status().Velocity).To(BeNumerically("~", 0.5, 1e-12))
			ctrl.ComputePWM()
			Expect(ctrl.Status().Velocity).To(BeNumerically("~", 1.0, 1e-12))
			ctrl.ComputePWM()
			Expect(ctrl.Status().Velocity).To(BeNumerically("~", 1.0, 1e-12))
		})

		It("re-anchors the position reference at the sensed position", func() {
			ctrl.SetControlMode(motor.ModePosition)
			ctrl.ReadPosition(4.2)
			ctrl.SetVelocityReference(1, 1)

			st := ctrl.Status()
			Expect(st.PositionReference).To(Equal(4.2))
			Expect(st.FakePositionOffset).To(BeZero())
			Expect(st.VelocityModeTimer).To(BeZero())
		})

		DescribeTable("mode transitions",
			func(from, to motor.Mode) {
				ctrl.SetControlMode(from)
				ctrl.SetVelocityReference(1, 1)
				Expect(ctrl.Mode()).To(Equal(to))
			},
			Entry("position", motor.ModePosition, motor.ModeVelocity),
			Entry("velocity", motor.ModeVelocity, motor.ModeVelocity),
			Entry("impedance position", motor.ModeImpedancePosition, motor.ModeImpedanceVelocity),
			Entry("impedance velocity", motor.ModeImpedanceVelocity, motor.ModeImpedanceVelocity),
			Entry("idle", motor.ModeIdle, motor.ModeIdle),
			Entry("torque", motor.ModeTorque, motor.ModeTorque),
			Entry("open loop", motor.ModeOpenLoop, motor.ModeOpenLoop),
		)

		It("is ignored in rejecting modes", func() {
			ctrl.SetControlMode(motor.ModeTorque)
			ctrl.ReadPosition(3)
			before := ctrl.Status()

			ctrl.SetVelocityReference(1, 1)
			Expect(ctrl.Status()).To(Equal(before))
		})

		It("stops residual velocity only when leaving a position mode", func() {
			ctrl.SetControlMode(motor.ModeVelocity)
			ctrl.SetVelocityReference(2, 1000)
			ctrl.ComputePWM()
			Expect(ctrl.Status().Velocity).To(BeNumerically("~", 1.0, 1e-12))

			ctrl.SetVelocityReference(2, 1000)
			Expect(ctrl.Status().Velocity).To(BeNumerically("~", 1.0, 1e-12))

			ctrl.SetPositionReference(0, 1)
			ctrl.SetVelocityReference(2, 1000)
			Expect(ctrl.Status().Velocity).To(BeZero())
		})
	})

	Describe("ComputePWM", func() {
		It("returns exactly zero when idle whatever is stored", func() {
			ctrl.ReadPosition(3)
			ctrl.ReadTorque(7)
			ctrl.SetTorqueReference(-2)
			ctrl.SetImpedanceStiffness(9)

			for i := 0; i < 10; i++ {
				Expect(ctrl.ComputePWM()).To(Equal(0.0))
			}
			Expect(pidP.errs).To(BeEmpty())
			Expect(pidT.errs).To(BeEmpty())
			Expect(traj.steps).To(BeZero())
		})

		It("tracks the trajectory in position mode", func() {
			ctrl.SetControlMode(motor.ModePosition)
			traj.next = 1.5
			ctrl.ReadPosition(1.0)

			pwm := ctrl.ComputePWM()
			Expect(pwm).To(BeNumerically("~", 50, 1e-9))
			Expect(pidP.errs).To(Equal([]float64{0.5}))
			Expect(ctrl.Status().PositionReference).To(Equal(1.5))
			Expect(pidT.errs).To(BeEmpty())
		})

		It("ramps velocity by at most one step per tick and then snaps", func() {
			ctrl.SetControlMode(motor.ModeVelocity)
			ctrl.SetVelocityReference(2.5, 1000)

			ctrl.ComputePWM()
			Expect(ctrl.Status().Velocity).To(BeNumerically("~", 1.0, 1e-12))
			ctrl.ComputePWM()
			Expect(ctrl.Status().Velocity).To(BeNumerically("~", 2.0, 1e-12))
			ctrl.ComputePWM()
			Expect(ctrl.Status().Velocity).To(Equal(2.5))
			ctrl.ComputePWM()
			Expect(ctrl.Status().Velocity).To(Equal(2.5))
		})

		It("ramps down toward a negative reference", func() {
			ctrl.SetControlMode(motor.ModeVelocity)
			ctrl.SetVelocityReference(-1.5, 1000)

			ctrl.ComputePWM()
			Expect(ctrl.Status().Velocity).To(BeNumerically("~", -1.0, 1e-12))
			ctrl.ComputePWM()
			Expect(ctrl.Status().Velocity).To(Equal(-1.5))
		})

		It("integrates velocity on top of the trajectory output", func() {
			ctrl.SetControlMode(motor.ModeVelocity)
			ctrl.SetVelocityReference(2, 1e6)
			traj.next = 0.5
			ctrl.ReadPosition(0.5)

			ctrl.ComputePWM()
			ctrl.ComputePWM()

			st := ctrl.Status()
			Expect(st.FakePositionOffset).To(BeNumerically("~", 2*2*period, 1e-12))
			Expect(st.PositionReference).To(BeNumerically("~", 0.5+4*period, 1e-12))
			Expect(pidP.errs[1]).To(BeNumerically("~", 4*period, 1e-12))
		})

		It("reverts to position once the velocity timeout elapses", func() {
			ctrl.SetVelocityTimeout(0.0045)
			ctrl.SetControlMode(motor.ModeVelocity)
			ctrl.SetVelocityReference(1, 1)

			for i := 1; i <= 4; i++ {
				ctrl.ComputePWM()
				Expect(ctrl.Mode()).To(Equal(motor.ModeVelocity))
				Expect(ctrl.Status().VelocityModeTimer).To(BeNumerically("~", float64(i)*period, 1e-12))
			}

			ctrl.ComputePWM()
			Expect(ctrl.Mode()).To(Equal(motor.ModePosition))
			Expect(ctrl.Status().VelocityModeTimer).To(BeZero())
		})

		It("restarts the timeout on every velocity command", func() {
			ctrl.SetVelocityTimeout(0.0045)
			ctrl.SetControlMode(motor.ModeVelocity)

			for i := 0; i < 20; i++ {
				ctrl.SetVelocityReference(1, 1)
				ctrl.ComputePWM()
				Expect(ctrl.Mode()).To(Equal(motor.ModeVelocity))
			}
		})

		It("runs the torque loop on torque error", func() {
			ctrl.SetControlMode(motor.ModeTorque)
			ctrl.SetTorqueReference(2)
			ctrl.ReadTorque(0.5)

			Expect(ctrl.ComputePWM()).To(BeNumerically("~", 15, 1e-12))
			Expect(pidT.errs).To(Equal([]float64{1.5}))
			Expect(pidP.errs).To(BeEmpty())
		})

		DescribeTable("outputs zero for modes without a PWM law",
			func(mode motor.Mode) {
				ctrl.SetControlMode(mode)
				ctrl.ReadPosition(1)
				ctrl.ReadTorque(1)
				Expect(ctrl.ComputePWM()).To(Equal(0.0))
				Expect(pidP.errs).To(BeEmpty())
				Expect(pidT.errs).To(BeEmpty())
			},
			Entry("impedance position", motor.ModeImpedancePosition),
			Entry("impedance velocity", motor.ModeImpedanceVelocity),
			Entry("open loop", motor.ModeOpenLoop),
		)
	})
})
