package server

// sessionSnapshot is the public view of a session, safe to broadcast.
// The host token never leaves the create response.
func sessionSnapshot(session *Session) map[string]any {
	participants := make([]map[string]any, 0, len(session.Participants))
	for _, p := range session.Participants {
		participants = append(participants, map[string]any{
			"name":  p.Name,
			"ready": p.Ready,
		})
	}
	payload := map[string]any{
		"session_name":      session.Name,
		"host":              session.Host,
		"state":             session.State,
		"participants":      participants,
		"participant_count": len(session.Participants),
	}
	if session.Game != nil {
		payload["game"] = gameSnapshot(session.Game)
	}
	return payload
}

// sessionInfo is the compact listing entry for GET /api/sessions.
func sessionInfo(session *Session) map[string]any {
	info := map[string]any{
		"session_name":      session.Name,
		"host":              session.Host,
		"state":             session.State,
		"participant_count": len(session.Participants),
	}
	if session.Game != nil {
		info["game_variant"] = session.Game.Variant()
	}
	return info
}

// gameSnapshot renders the in-game state for broadcast. Trivia answers
// are withheld; the host receives them through a direct send.
func gameSnapshot(game GameState) map[string]any {
	core := game.Core()
	payload := map[string]any{
		"game_variant": game.Variant(),
		"state":        core.State,
		"phase":        core.Phase,
	}
	if !core.StartedAt.IsZero() {
		payload["started_at"] = epochSeconds(core.StartedAt)
	}
	switch g := game.(type) {
	case *TapGauntletState:
		payload["duration_seconds"] = g.DurationSeconds
		payload["taps"] = copyCounts(g.Taps)
	case *BuzzerTriviaState:
		payload["round"] = g.Round
		payload["max_rounds"] = g.MaxRounds
		payload["category_options"] = g.CategoryOptions
		payload["selected_category"] = g.SelectedCategory
		payload["question"] = g.Question
		payload["buzzes"] = buzzesPayload(g.Buzzes)
		payload["total_scores"] = copyCounts(g.TotalScores)
	case *RouletteState:
		payload["round"] = g.Round
		payload["max_rounds"] = g.MaxRounds
		payload["chamber_count"] = len(g.Chambers)
		payload["alive"] = append([]string(nil), g.Alive...)
		payload["survived"] = copyCounts(g.Survived)
	}
	return payload
}

func buzzesPayload(buzzes []Buzz) []map[string]any {
	list := make([]map[string]any, 0, len(buzzes))
	for _, b := range buzzes {
		list = append(list, map[string]any{
			"participant": b.Participant,
			"at":          b.At,
			"position":    b.Position,
		})
	}
	return list
}

func copyCounts(counts map[string]int) map[string]int {
	clone := make(map[string]int, len(counts))
	for k, v := range counts {
		clone[k] = v
	}
	return clone
}
