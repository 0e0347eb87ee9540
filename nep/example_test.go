package nep_test

import (
	"fmt"

	"github.com/cryolab/tesnep/nep"
	"github.com/cryolab/tesnep/thermal"
)

func ExampleEstimateNEP() {
	fit := &thermal.Fit{K: 1e-10, T0: 0.45, N: 3}

	est := nep.EstimateNEP(fit)

	fmt.Printf("G     = %.4e W/K\n", est.G)
	fmt.Printf("gamma = %.4f\n", est.Gamma)
	fmt.Printf("NEP   = %.4e W/sqrt(Hz)\n", est.NEP)

	// Output:
	// G     = 6.0750e-11 W/K
	// gamma = 0.5734
	// NEP   = 1.9737e-17 W/sqrt(Hz)
}
