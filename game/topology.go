package game

import "fmt"

// AddBorder adds a bidirectional neighbor relation between two players.
func (t Topology) AddBorder(a, b string) {
	if !contains(t[a], b) {
		t[a] = append(t[a], b)
	}
	if !contains(t[b], a) {
		t[b] = append(t[b], a)
	}
}

// Ring connects each player to the players before and after it, wrapping around.
func Ring(ids []string) Topology {
	t := Topology{}
	for i, id := range ids {
		if _, ok := t[id]; !ok {
			t[id] = nil
		}
		if len(ids) > 1 {
			next := ids[(i+1)%len(ids)]
			if next != id {
				t.AddBorder(id, next)
			}
		}
	}
	return t
}

func contains(slice []string, item string) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// PlayerIDs returns numbered ids "Player1".."PlayerN".
func PlayerIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("Player%d", i+1)
	}
	return ids
}
