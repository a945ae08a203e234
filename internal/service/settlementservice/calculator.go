package settlementservice

import (
	"sort"

	"github.com/kittyvault/kittyvault/internal/domain"
)

// epsilonCents is the smallest amount worth emitting an instruction
// for: one minor currency unit.
const epsilonCents int64 = 1

type party struct {
	userID int
	amount int64
}

// Calculate turns per-player net results into a minimal set of payment
// instructions using greedy largest-debt-to-largest-credit matching.
// Sorting is stable, so players with equal amounts keep their input
// order and the result is deterministic. Pure function.
func Calculate(results []domain.PlayerResult) []domain.SettlementInstruction {
	var debtors, creditors []party
	for _, r := range results {
		switch {
		case r.NetCents > 0:
			creditors = append(creditors, party{userID: r.UserID, amount: r.NetCents})
		case r.NetCents < 0:
			debtors = append(debtors, party{userID: r.UserID, amount: -r.NetCents})
		}
	}

	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })

	instructions := make([]domain.SettlementInstruction, 0)
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].amount
		if creditors[j].amount < amount {
			amount = creditors[j].amount
		}

		if amount >= epsilonCents {
			instructions = append(instructions, domain.SettlementInstruction{
				FromUserID:  debtors[i].userID,
				ToUserID:    creditors[j].userID,
				AmountCents: amount,
			})
		}

		debtors[i].amount -= amount
		creditors[j].amount -= amount
		if debtors[i].amount < epsilonCents {
			i++
		}
		if creditors[j].amount < epsilonCents {
			j++
		}
	}

	return instructions
}
