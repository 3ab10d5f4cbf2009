// Package content は会社別の学習トラック (カリキュラム) を読み込み、参照用に保持します。
package content

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go_4_interview_prep/internal/model"
)

var ErrUnsupportedFormat = errors.New("unsupported content file format")

// Catalog は読み込み済みトラックの読み取り専用コレクション
type Catalog struct {
	tracks map[string]*model.Track
	order  []string
}

// NewCatalog はトラックを検証してカタログを作る
func NewCatalog(tracks []model.Track) (*Catalog, error) {
	c := &Catalog{tracks: make(map[string]*model.Track, len(tracks))}
	for i := range tracks {
		t := tracks[i]
		if err := validateTrack(&t); err != nil {
			return nil, err
		}
		if _, dup := c.tracks[t.CompanyName]; dup {
			return nil, fmt.Errorf("duplicate track %q", t.CompanyName)
		}
		sort.SliceStable(t.Topics, func(a, b int) bool { return t.Topics[a].Day < t.Topics[b].Day })
		c.tracks[t.CompanyName] = &t
		c.order = append(c.order, t.CompanyName)
	}
	return c, nil
}

// Load はファイル拡張子に応じて YAML か XLSX からカタログを作る
func Load(path string) (*Catalog, error) {
	var (
		tracks []model.Track
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		tracks, err = LoadYAML(path)
	case ".xlsx":
		tracks, err = LoadXLSX(path, DefaultSheetName)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	return NewCatalog(tracks)
}

// Track は会社名 (大文字小文字を区別) でトラックを返す
func (c *Catalog) Track(companyName string) (*model.Track, bool) {
	t, ok := c.tracks[companyName]
	return t, ok
}

// List は読み込み順のトラック概要を返す
func (c *Catalog) List() []model.TrackSummary {
	out := make([]model.TrackSummary, 0, len(c.order))
	for _, name := range c.order {
		t := c.tracks[name]
		out = append(out, model.TrackSummary{
			CompanyName: t.CompanyName,
			Title:       t.Title,
			TotalDays:   t.TotalDays,
		})
	}
	return out
}

// TotalDays は会社のトラック日数を返す。未知の会社なら 0
func (c *Catalog) TotalDays(companyName string) int {
	if t, ok := c.tracks[companyName]; ok {
		return t.TotalDays
	}
	return 0
}

func validateTrack(t *model.Track) error {
	if strings.TrimSpace(t.CompanyName) == "" {
		return errors.New("track without company_name")
	}
	if t.TotalDays <= 0 {
		return fmt.Errorf("track %q: total_days must be positive", t.CompanyName)
	}
	seen := make(map[string]struct{}, len(t.Topics))
	for _, topic := range t.Topics {
		if topic.ID == "" {
			return fmt.Errorf("track %q: topic on day %d has no id", t.CompanyName, topic.Day)
		}
		if _, dup := seen[topic.ID]; dup {
			return fmt.Errorf("track %q: duplicate topic id %q", t.CompanyName, topic.ID)
		}
		seen[topic.ID] = struct{}{}
	}
	return nil
}
