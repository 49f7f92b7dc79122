package models

import (
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Visit stores one accepted page-visit event. Rows are append-only: they are
// never updated or deleted once inserted.
type Visit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    string    `gorm:"size:255;not null;index:idx_visits_post_created;index:idx_visits_post_ip" json:"postId"`
	Path      string    `gorm:"size:1024;not null" json:"path"`
	PostTitle string    `gorm:"size:512;not null" json:"postTitle"`
	Referrer  *string   `gorm:"size:1024" json:"referrer,omitempty"`
	UserAgent *string   `gorm:"size:512" json:"userAgent,omitempty"`
	IP        *string   `gorm:"size:45;index:idx_visits_post_ip" json:"-"`
	CreatedAt time.Time `gorm:"index:idx_visits_post_created" json:"createdAt"`
}

// VisitInput is a validated, normalized visit payload. Referrer and UserAgent
// use "" for absent.
type VisitInput struct {
	PostID    string
	Path      string
	PostTitle string
	Referrer  string
	UserAgent string
}

// VisitStats is the aggregate read model for one post, computed on demand.
type VisitStats struct {
	PostID         string `json:"postId"`
	TotalVisits    int64  `json:"totalVisits"`
	UniqueVisitors int64  `json:"uniqueVisitors"`
	Last7Days      int64  `json:"last7days"`
	Last24h        int64  `json:"last24h"`
	YourVisits     int64  `json:"yourVisits"`
}

// VisitStore wraps the shared gorm handle with the visit table operations.
type VisitStore struct {
	db *gorm.DB
}

// NewVisitStore creates a VisitStore on top of an initialized gorm DB.
func NewVisitStore(db *gorm.DB) *VisitStore {
	return &VisitStore{db: db}
}

// Insert appends one visit. ID and CreatedAt are assigned here, never by the
// caller. ip may be "" when the origin address is unknown.
func (s *VisitStore) Insert(in VisitInput, ip string) (*Visit, error) {
	v := &Visit{
		PostID:    in.PostID,
		Path:      in.Path,
		PostTitle: in.PostTitle,
		Referrer:  nullable(in.Referrer),
		UserAgent: nullable(in.UserAgent),
		IP:        nullable(ip),
	}
	if err := s.db.Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// CountAll returns the total number of stored visits across all posts.
func (s *VisitStore) CountAll() (int64, error) {
	var n int64
	err := s.db.Model(&Visit{}).Count(&n).Error
	return n, err
}

// CountTotal returns the number of visits for a post.
func (s *VisitStore) CountTotal(postID string) (int64, error) {
	var n int64
	err := s.db.Model(&Visit{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

// CountDistinctOrigins returns the number of distinct known origin addresses
// that visited a post. Rows without an address are not counted.
func (s *VisitStore) CountDistinctOrigins(postID string) (int64, error) {
	var n int64
	err := s.db.Model(&Visit{}).
		Where("post_id = ? AND ip IS NOT NULL AND ip <> ''", postID).
		Distinct("ip").
		Count(&n).Error
	return n, err
}

// CountSince returns the number of visits for a post within the trailing window.
func (s *VisitStore) CountSince(postID string, window time.Duration) (int64, error) {
	var n int64
	err := s.db.Model(&Visit{}).
		Where("post_id = ? AND created_at >= ?", postID, time.Now().Add(-window)).
		Count(&n).Error
	return n, err
}

// CountFromOrigin returns the number of visits for a post from one origin
// address. An unknown address yields 0 without touching the store.
func (s *VisitStore) CountFromOrigin(postID, ip string) (int64, error) {
	if ip == "" {
		return 0, nil
	}
	var n int64
	err := s.db.Model(&Visit{}).
		Where("post_id = ? AND ip = ?", postID, ip).
		Count(&n).Error
	return n, err
}

// ExistsRecent reports whether the same origin already visited the post within
// the trailing window. It backs the dedup policy: an unknown origin never
// suppresses. The caller's check-then-insert pair is not atomic against
// concurrent identical requests; dedup is best-effort.
func (s *VisitStore) ExistsRecent(postID, ip string, window time.Duration) (bool, error) {
	if ip == "" {
		return false, nil
	}
	var v Visit
	err := s.db.Select("id").
		Where("post_id = ? AND ip = ? AND created_at >= ?", postID, ip, time.Now().Add(-window)).
		Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Stats computes the aggregate read model for a post. The five counting
// queries run concurrently; any failure fails the whole aggregation and no
// partial result is returned.
func (s *VisitStore) Stats(postID, requesterIP string) (*VisitStats, error) {
	res := &VisitStats{PostID: postID}

	var g errgroup.Group
	g.Go(func() error {
		var err error
		res.TotalVisits, err = s.CountTotal(postID)
		return err
	})
	g.Go(func() error {
		var err error
		res.UniqueVisitors, err = s.CountDistinctOrigins(postID)
		return err
	})
	g.Go(func() error {
		var err error
		res.Last7Days, err = s.CountSince(postID, 7*24*time.Hour)
		return err
	})
	g.Go(func() error {
		var err error
		res.Last24h, err = s.CountSince(postID, 24*time.Hour)
		return err
	})
	g.Go(func() error {
		var err error
		res.YourVisits, err = s.CountFromOrigin(postID, requesterIP)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
