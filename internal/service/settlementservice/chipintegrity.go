package settlementservice

// IntegrityResult is the outcome of the chips-in/chips-out check that
// gates settlement.
type IntegrityResult struct {
	Valid       bool
	Discrepancy int64
}

// CheckChipIntegrity compares total chips distributed against total
// chips returned. Settlement must not proceed while the discrepancy
// exceeds the tolerance.
func CheckChipIntegrity(distributed, returned, tolerance int64) IntegrityResult {
	discrepancy := distributed - returned
	if discrepancy < 0 {
		discrepancy = -discrepancy
	}
	return IntegrityResult{
		Valid:       discrepancy <= tolerance,
		Discrepancy: discrepancy,
	}
}
