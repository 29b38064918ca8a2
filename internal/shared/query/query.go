// Package query holds the list filtering and pagination rules shared by the
// lead and property repositories.
package query

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/text/cases"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// MaxPage keeps (page-1)*limit well inside int range.
const MaxPage = math.MaxInt/MaxLimit - 1

// Page is a normalized offset window.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the number of records to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// NewPage clamps page and limit: page < 1 becomes 1, limit < 1 becomes 10
// and limit above 100 becomes 100. Pages beyond MaxPage become MaxPage.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

// ParsePage reads raw query values. Non-numeric values fall back to defaults.
func ParsePage(rawPage, rawLimit string) Page {
	page, err := strconv.Atoi(strings.TrimSpace(rawPage))
	if err != nil {
		page = DefaultPage
	}
	limit, err := strconv.Atoi(strings.TrimSpace(rawLimit))
	if err != nil {
		limit = DefaultLimit
	}
	return NewPage(page, limit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern wraps term for a literal, substring ILIKE match.
func LikePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// MongoContains builds a case-insensitive regex that matches term literally.
func MongoContains(term string) bson.Regex {
	return bson.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

// ContainsFold reports whether s contains term under Unicode case folding.
func ContainsFold(s, term string) bool {
	if term == "" {
		return true
	}
	folder := cases.Fold()
	return strings.Contains(folder.String(s), folder.String(term))
}
