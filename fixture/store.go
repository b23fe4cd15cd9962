// Package fixture serves a local replica of the card-search site: the same
// element ids, classes and layout the browser suite asserts on, backed by a
// seeded SQLite catalogue.
package fixture

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PageSize is the number of cards on one result page.
const PageSize = 60

// Card model
type Card struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"index" json:"name"`
	SetCode         string    `json:"set"`
	CollectorNumber string    `json:"collector_number"`
	Rarity          string    `json:"rarity"`
	ManaValue       float64   `json:"cmc"`
	ReleasedAt      time.Time `json:"released_at"`
}

// Order is a sort order offered by the order select.
type Order struct {
	Value  string
	Label  string
	clause string
}

// Orders in the order the select lists them. The second entry must stay
// "released": the sorting scenario picks option[2].
var Orders = []Order{
	{"name", "Sort by Name", "name ASC"},
	{"released", "Sort by Release Date", "released_at DESC, name ASC"},
	{"set", "Sort by Set/Number", "set_code ASC, collector_number ASC"},
	{"rarity", "Sort by Rarity", "rarity DESC, name ASC"},
	{"cmc", "Sort by Mana Value", "mana_value ASC, name ASC"},
}

func orderClause(value string) string {
	for _, o := range Orders {
		if o.Value == value {
			return o.clause
		}
	}
	return Orders[0].clause
}

// SearchQuery is a name search with sort order and 1-based page.
type SearchQuery struct {
	Text  string
	Order string
	Page  int
}

// SearchResult is one page of matches.
type SearchResult struct {
	Cards     []Card
	Total     int64
	Page      int
	PageCount int
}

// HasMore reports whether pages follow this one.
func (r SearchResult) HasMore() bool {
	return r.Page < r.PageCount
}

// Store is the card catalogue.
type Store struct {
	db *gorm.DB
}

// OpenStore opens the SQLite catalogue at dsn, migrating and seeding it on
// first use.
func OpenStore(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	if err := db.AutoMigrate(&Card{}); err != nil {
		return nil, fmt.Errorf("failed to migrate Card table: %w", err)
	}

	s := &Store{db: db}
	var n int64
	if err := db.Model(&Card{}).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		if err := s.seed(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) seed() error {
	cards := SeedCards()
	if err := s.db.CreateInBatches(cards, 100).Error; err != nil {
		return fmt.Errorf("seeding catalogue: %w", err)
	}
	return nil
}

// Close releases the connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Count returns the catalogue size.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.Model(&Card{}).Count(&n).Error
	return n, err
}

// Search returns the page of cards whose name contains q.Text,
// case-insensitively. Pages past the end are clamped to the last page.
func (s *Store) Search(q SearchQuery) (SearchResult, error) {
	matches := func() *gorm.DB {
		return s.db.Model(&Card{}).
			Where(`name LIKE ? ESCAPE '\'`, "%"+escapeLike(q.Text)+"%")
	}

	var res SearchResult
	if err := matches().Count(&res.Total).Error; err != nil {
		return res, fmt.Errorf("counting matches: %w", err)
	}
	res.PageCount = int((res.Total + PageSize - 1) / PageSize)
	res.Page = q.Page
	if res.Page < 1 {
		res.Page = 1
	}
	if res.PageCount > 0 && res.Page > res.PageCount {
		res.Page = res.PageCount
	}
	if res.Total == 0 {
		return res, nil
	}

	err := matches().Order(orderClause(q.Order)).
		Offset((res.Page - 1) * PageSize).
		Limit(PageSize).
		Find(&res.Cards).Error
	if err != nil {
		return res, fmt.Errorf("fetching matches: %w", err)
	}
	return res, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
