package guides

// ContextSource turns a published guide into chat context text for the AI
// assistant. Gated content and the house manual are included only when the
// guide is ungated or the caller presents a valid unlock token.
type ContextSource struct {
	store Store
}

func NewContextSource(store Store) *ContextSource {
	return &ContextSource{store: store}
}

// ChatContext returns the snapshot for the guide behind slug. found is false
// when no published guide carries the slug.
func (s *ContextSource) ChatContext(slug, unlockToken string) (ctx string, found bool, err error) {
	g, err := s.store.GetBySlug(slug)
	if err != nil {
		return "", false, err
	}
	if g == nil || !g.Published {
		return "", false, nil
	}
	unlocked := ResolveUnlockCode(g) == "" || (unlockToken != "" && VerifyUnlockToken(unlockToken, g.ID))
	return Snapshot(g, unlocked), true, nil
}
