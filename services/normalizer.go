package services

import (
	"errors"
	"html"
	"strings"
	"time"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"

	"wishlist-tracker/models"
	"wishlist-tracker/scraper/wishlist"
	"wishlist-tracker/utils"
)

// ErrMissingItemID drops an item that carries neither an internal nor an
// external identifier, since nothing could correlate its observations.
var ErrMissingItemID = errors.New("item has no identifier")

// SkippedItem records why one fragment did not make it into a batch.
type SkippedItem struct {
	Index int
	Err   error
}

// Batch is the normalized output of one list load. Every observation in it
// shares the same CapturedAt.
type Batch struct {
	ListName     string
	CapturedAt   time.Time
	Identities   []models.ItemIdentity
	Observations []models.Observation
	Skipped      []SkippedItem
	Duplicates   int
}

// Normalizer turns item fragments into identity and observation rows.
type Normalizer struct {
	logger *utils.Logger
	policy *bluemonday.Policy
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{
		logger: logger,
		policy: bluemonday.StrictPolicy(),
	}
}

// Extract runs every field extractor over one fragment. Only name and
// byline failures are returned as errors; all other fields degrade to
// "not available".
func (n *Normalizer) Extract(f wishlist.Fragment) (models.ExtractedFieldSet, error) {
	name, err := wishlist.ExtractName(f)
	if err != nil {
		return models.ExtractedFieldSet{}, err
	}
	byLine, err := wishlist.ExtractByLine(f)
	if err != nil {
		return models.ExtractedFieldSet{}, err
	}

	return models.ExtractedFieldSet{
		Name:         n.cleanText(name),
		ByLine:       n.cleanText(byLine),
		Price:        wishlist.ExtractPrice(f),
		UsedNewPrice: wishlist.ExtractUsedNewPrice(f),
		Rating:       wishlist.ExtractRating(f),
		ReviewCount:  wishlist.ExtractReviewCount(f),
		ItemID:       wishlist.ExtractItemID(f),
		ExternalID:   wishlist.ExtractExternalID(f),
	}, nil
}

// Normalize extracts every fragment and splits the survivors into identities
// and observations stamped with capturedAt. Items that fail a required
// field are skipped; the rest of the batch is kept.
func (n *Normalizer) Normalize(fragments []wishlist.Fragment, listName string, capturedAt time.Time) *Batch {
	batch := &Batch{
		ListName:     listName,
		CapturedAt:   capturedAt,
		Identities:   make([]models.ItemIdentity, 0, len(fragments)),
		Observations: make([]models.Observation, 0, len(fragments)),
	}
	seen := make(map[string]struct{}, len(fragments))

	for i, f := range fragments {
		fields, err := n.Extract(f)
		if err != nil {
			n.skip(batch, i, f, err)
			continue
		}

		itemID := fields.ItemID
		if itemID == "" {
			itemID = fields.ExternalID
		}
		if itemID == "" {
			n.skip(batch, i, f, ErrMissingItemID)
			continue
		}

		if _, dup := seen[itemID]; dup {
			n.logger.Debug("[normalizer] Duplicate item %s in %q skipped", itemID, listName)
			batch.Duplicates++
			continue
		}
		seen[itemID] = struct{}{}

		batch.Identities = append(batch.Identities, models.ItemIdentity{
			ItemID:     itemID,
			ExternalID: fields.ExternalID,
			Name:       fields.Name,
			ByLine:     fields.ByLine,
			ListName:   listName,
		})
		batch.Observations = append(batch.Observations, models.Observation{
			ItemID:       itemID,
			CapturedAt:   capturedAt,
			ListName:     listName,
			Price:        fields.Price,
			UsedNewPrice: fields.UsedNewPrice,
			Rating:       fields.Rating,
			ReviewCount:  fields.ReviewCount,
		})
	}

	n.logger.Info("[normalizer] %q: normalized %d → %d items (skipped %d, duplicates %d)",
		listName, len(fragments), len(batch.Observations), len(batch.Skipped), batch.Duplicates)
	return batch
}

func (n *Normalizer) skip(batch *Batch, index int, f wishlist.Fragment, err error) {
	n.logger.Warn("[normalizer] %q: skipping item #%d: %v", batch.ListName, index, err)
	n.logger.Debug("[normalizer] skipped markup: %s", f.HTML())
	batch.Skipped = append(batch.Skipped, SkippedItem{Index: index, Err: err})
}

// cleanText strips markup and entities, NFC-normalises and collapses
// whitespace.
func (n *Normalizer) cleanText(s string) string {
	s = html.UnescapeString(n.policy.Sanitize(s))
	return normaliseText(norm.NFC.String(s))
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}
