package discord

// canModerate: владельца трогать нельзя, а роль бота должна быть строго выше роли цели.
// positions: позиции ролей сервера по ID; @everyone имеет позицию 0.
func canModerate(ownerID, targetID string, positions map[string]int, botRoles, targetRoles []string) bool {
	if targetID == ownerID {
		return false
	}
	return highestPosition(positions, botRoles) > highestPosition(positions, targetRoles)
}

func highestPosition(positions map[string]int, roles []string) int {
	top := 0
	for _, id := range roles {
		if p, ok := positions[id]; ok && p > top {
			top = p
		}
	}
	return top
}
