package motor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/axisctl/internal/motor"
)

var _ = Describe("Mode", func() {
	It("round-trips every mode through its name", func() {
		for _, m := range motor.Modes() {
			parsed, err := motor.ParseMode(m.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(m))
		}
	})

	It("ignores case and surrounding space", func() {
		m, err := motor.ParseMode("  Impedance_Velocity ")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(motor.ModeImpedanceVelocity))
	})

	It("rejects unknown names", func() {
		_, err := motor.ParseMode("current")
		Expect(err).To(MatchError(motor.ErrUnknownMode))
	})

	It("prints out-of-range values", func() {
		Expect(motor.Mode(42).String()).To(Equal("mode(42)"))
	})
})
