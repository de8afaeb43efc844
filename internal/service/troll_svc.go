package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/config"
)

// coolRecord tracks one user's recent cool activity across videos.
type coolRecord struct {
	recent      []time.Time // cool timestamps inside the rolling window
	lastVideoID string
	consecutive int // consecutive cools on lastVideoID
	blockedTil  time.Time
}

// TrollService watches cool-direction behavior in a rolling window and
// attaches advisory warnings to outcomes, escalating to a temporary hard
// block past the high threshold. Advisory UX on top of the hard caps, not
// a replacement for them. In-memory, per instance; blocks are mirrored to
// Redis (best effort) so a restart or a second instance still honors them.
type TrollService struct {
	mu      sync.Mutex
	records map[string]*coolRecord

	cache *CacheService

	window          time.Duration
	warnCount       int
	consecutiveSame int
	blockCount      int
	blockDuration   time.Duration
}

func NewTrollService(cache *CacheService, cfg *config.Config) *TrollService {
	s := &TrollService{
		records:         make(map[string]*coolRecord),
		cache:           cache,
		window:          cfg.TrollWindow,
		warnCount:       cfg.TrollWarnCount,
		consecutiveSame: cfg.TrollConsecutiveSame,
		blockCount:      cfg.TrollBlockCount,
		blockDuration:   cfg.TrollBlockDuration,
	}
	go s.cleanup()
	return s
}

// IsBlocked reports whether the user is under a temporary cool block.
func (s *TrollService) IsBlocked(ctx context.Context, userID string, now time.Time) bool {
	s.mu.Lock()
	r, ok := s.records[userID]
	blocked := ok && now.Before(r.blockedTil)
	s.mu.Unlock()

	if blocked {
		return true
	}
	if s.cache != nil {
		return s.cache.TrollBlockActive(ctx, userID)
	}
	return false
}

// ObserveCool records one applied cool action and returns a warning
// message if the user's recent behavior crossed an advisory threshold.
// Empty string means no warning.
func (s *TrollService) ObserveCool(ctx context.Context, userID, videoID string, now time.Time) string {
	s.mu.Lock()

	r, ok := s.records[userID]
	if !ok {
		r = &coolRecord{}
		s.records[userID] = r
	}

	// Drop entries that fell out of the window.
	cutoff := now.Add(-s.window)
	kept := r.recent[:0]
	for _, t := range r.recent {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	r.recent = append(kept, now)

	if videoID == r.lastVideoID {
		r.consecutive++
	} else {
		r.lastVideoID = videoID
		r.consecutive = 1
	}

	recentCount := len(r.recent)
	consecutive := r.consecutive

	var blocked bool
	if recentCount >= s.blockCount {
		r.blockedTil = now.Add(s.blockDuration)
		blocked = true
	}
	s.mu.Unlock()

	if blocked {
		if s.cache != nil {
			s.cache.SetTrollBlock(ctx, userID, s.blockDuration)
		}
		return fmt.Sprintf("Cool actions temporarily blocked for %s due to excessive activity.", s.blockDuration)
	}

	switch {
	case recentCount >= s.warnCount:
		return "You're cooling a lot of videos right now. Counters still count, but consider slowing down."
	case consecutive >= s.consecutiveSame:
		return "Repeated cools on the same video don't increase the effect."
	}
	return ""
}

// cleanup drops idle records so the map doesn't grow unbounded.
func (s *TrollService) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		cutoff := now.Add(-s.window)
		for userID, r := range s.records {
			if now.After(r.blockedTil) && (len(r.recent) == 0 || !r.recent[len(r.recent)-1].After(cutoff)) {
				delete(s.records, userID)
			}
		}
		s.mu.Unlock()
	}
}
