package leveling

const (
	baseXP     = 100  // опыт для первого уровня
	xpIncrease = 0.15 // каждый следующий уровень дороже на 15%
)

// XPForLevel: сколько опыта нужно набрать на уровне level-1, чтобы перейти на level.
func XPForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	need := float64(baseXP)
	for i := 1; i < level; i++ {
		need += need * xpIncrease
	}
	return int(need)
}
