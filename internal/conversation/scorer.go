package conversation

import "sync"

// DefaultAlpha is the EWMA smoothing factor used when none is configured.
const DefaultAlpha = 0.25

// Scores are the rolling conversation metrics reported to clients.
type Scores struct {
	SelfEngagement    float64 `json:"user_engagement"`
	PartnerEngagement float64 `json:"partner_engagement"`
	SelfTalkShare     float64 `json:"user_talk_share"`
}

type lane struct {
	value       float64
	initialized bool
}

func (l lane) observe(alpha, sample float64) lane {
	if !l.initialized {
		return lane{value: sample, initialized: true}
	}
	return lane{value: alpha*sample + (1-alpha)*l.value, initialized: true}
}

// Scorer keeps one EWMA lane per role plus the talk share of the coached user.
type Scorer struct {
	mu        sync.RWMutex
	alpha     float64
	self      lane
	partner   lane
	talkShare float64
}

// NewScorer creates a scorer. Alpha outside (0, 1] falls back to DefaultAlpha.
func NewScorer(alpha float64) *Scorer {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	return &Scorer{alpha: alpha}
}

// Alpha returns the smoothing factor in use.
func (s *Scorer) Alpha() float64 {
	return s.alpha
}

// Update feeds sentiment into the lane of the author of the newest message in mem and
// recomputes talk share over the whole log.
func (s *Scorer) Update(mem *Memory, sentiment int) {
	msgs := mem.Messages()
	share := TalkShare(msgs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.talkShare = share
	if len(msgs) == 0 {
		return
	}
	sample := float64(sentiment)
	switch msgs[len(msgs)-1].Role {
	case RoleSelf:
		s.self = s.self.observe(s.alpha, sample)
	case RolePartner:
		s.partner = s.partner.observe(s.alpha, sample)
	}
}

// Scores returns the current metrics.
func (s *Scorer) Scores() Scores {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Scores{
		SelfEngagement:    s.self.value,
		PartnerEngagement: s.partner.value,
		SelfTalkShare:     s.talkShare,
	}
}

// TalkShare is the fraction of content characters authored by RoleSelf, or 0 for an
// empty log.
func TalkShare(msgs []Message) float64 {
	var self, total int
	for _, m := range msgs {
		n := m.Length()
		total += n
		if m.Role == RoleSelf {
			self += n
		}
	}
	if total == 0 {
		return 0
	}
	return float64(self) / float64(total)
}

// ScorerSnapshot is the serializable state of a Scorer.
type ScorerSnapshot struct {
	Scores             Scores `json:"scores"`
	SelfInitialized    bool   `json:"self_initialized"`
	PartnerInitialized bool   `json:"partner_initialized"`
}

// Snapshot captures the current state.
func (s *Scorer) Snapshot() ScorerSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ScorerSnapshot{
		Scores: Scores{
			SelfEngagement:    s.self.value,
			PartnerEngagement: s.partner.value,
			SelfTalkShare:     s.talkShare,
		},
		SelfInitialized:    s.self.initialized,
		PartnerInitialized: s.partner.initialized,
	}
}

// RestoreScorer rebuilds a Scorer from a snapshot.
func RestoreScorer(alpha float64, snap ScorerSnapshot) *Scorer {
	s := NewScorer(alpha)
	s.self = lane{value: snap.Scores.SelfEngagement, initialized: snap.SelfInitialized}
	s.partner = lane{value: snap.Scores.PartnerEngagement, initialized: snap.PartnerInitialized}
	s.talkShare = snap.Scores.SelfTalkShare
	return s
}
