package songbook

// planReorder computes the new entry order for a songbook. current holds
// the existing entries sorted by position; supplied is the caller's song id
// list, which may be partial and may name songs outside the songbook.
//
// Supplied songs come first, in the supplied order; entries the caller did
// not name follow, keeping their previous relative order. Supplied ids with
// no matching entry are ignored. The returned slice holds entry ids, index
// equals the new position.
func planReorder(current []Entry, supplied []string) []string {
	bySong := make(map[string]string, len(current))
	for _, e := range current {
		bySong[e.SongID] = e.ID
	}

	plan := make([]string, 0, len(current))
	placed := make(map[string]bool, len(supplied))
	for _, songID := range supplied {
		entryID, ok := bySong[songID]
		if !ok || placed[songID] {
			continue
		}
		placed[songID] = true
		plan = append(plan, entryID)
	}
	for _, e := range current {
		if !placed[e.SongID] {
			plan = append(plan, e.ID)
		}
	}
	return plan
}
