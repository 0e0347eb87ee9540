package thermal_test

import (
	"fmt"

	"github.com/cryolab/tesnep/thermal"
)

func ExamplePower() {
	// TES power at a 300 mK bath for K=1e-10 W/K^n, T0=450 mK, n=3.
	p := thermal.Power(0.3, 1e-10, 0.45, 3)

	fmt.Printf("P(300 mK) = %.4e W\n", p)

	// Output:
	// P(300 mK) = 6.4125e-12 W
}
