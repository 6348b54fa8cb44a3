package services

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"dealsense/models"
	"dealsense/utils"
)

// Normalizer turns raw marketplace payloads into canonical Listings. The
// API is inconsistent between endpoints — detail responses wrap the record
// in an "item" envelope, prices arrive either flat or as {amount, currency}
// objects, and ids come back as JSON numbers — so this is the single place
// where those shapes are resolved. Downstream code only ever sees Listings.
type Normalizer struct {
	logger  *utils.Logger
	baseURL string
}

// NewNormalizer creates a Normalizer. baseURL is used to absolutize
// relative listing URLs.
func NewNormalizer(logger *utils.Logger, baseURL string) *Normalizer {
	return &Normalizer{logger: logger, baseURL: strings.TrimRight(baseURL, "/")}
}

// Normalize processes raw items and returns canonical listings, dropping
// records without an identifier and deduplicating by normalized id.
func (n *Normalizer) Normalize(raw []models.RawItem) []*models.Listing {
	seen := make(map[string]struct{})
	result := make([]*models.Listing, 0, len(raw))

	for _, r := range raw {
		listing := n.normalizeOne(r)
		if listing.ID == "" {
			n.logger.Warn("[normalizer] Dropping item with no identifier: %s", listing.Title)
			continue
		}

		if _, dup := seen[listing.ID]; dup {
			n.logger.Debug("[normalizer] Duplicate id skipped: %s", listing.ID)
			continue
		}
		seen[listing.ID] = struct{}{}

		result = append(result, listing)
	}

	n.logger.Info("[normalizer] Normalized %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

func (n *Normalizer) normalizeOne(raw models.RawItem) *models.Listing {
	item := raw
	// Detail responses nest the record under "item".
	if inner, ok := asMap(raw["item"]); ok {
		item = inner
	}

	price, currency := extractPrice(item)

	l := &models.Listing{
		ID:           models.NormalizeID(item["id"]),
		Title:        normalizeText(str(item["title"])),
		Price:        price,
		Currency:     currency,
		ServiceFee:   num(item["service_fee"]),
		TotalPrice:   num(item["total_item_price"]),
		Brand:        extractBrand(item),
		Status:       str(item["status"]),
		Description:  normalizeText(str(item["description"])),
		PhotoURL:     extractPhotoURL(item),
		URL:          n.absolutizeURL(str(item["url"])),
		Seller:       extractSeller(item),
		SellerRating: extractSellerRating(item),
		Location:     extractLocation(item),
		FetchedAt:    time.Now(),
	}
	if l.TotalPrice == 0 {
		l.TotalPrice = l.Price
	}
	return l
}

// extractPrice handles both the flat and the nested price shape:
// "price": 12.5, "price": "12.5", or "price": {"amount": "12.5",
// "currency_code": "EUR"}. Falls back to price_numeric fields.
func extractPrice(item models.RawItem) (float64, string) {
	currency := str(item["currency"])

	if obj, ok := asMap(item["price"]); ok {
		if currency == "" {
			currency = str(obj["currency_code"])
		}
		return num(obj["amount"]), currency
	}
	if v := num(item["price"]); v > 0 {
		return v, currency
	}
	if v := num(item["price_numeric"]); v > 0 {
		return v, currency
	}
	return num(item["original_price_numeric"]), currency
}

func extractBrand(item models.RawItem) string {
	if dto, ok := asMap(item["brand_dto"]); ok {
		if title := str(dto["title"]); title != "" {
			return title
		}
	}
	return str(item["brand"])
}

// extractPhotoURL walks the photo structures in preference order: first
// photo's full size url, then its plain url, then the original thumbnail,
// then the flat fallback fields.
func extractPhotoURL(item models.RawItem) string {
	if photos, ok := item["photos"].([]any); ok && len(photos) > 0 {
		if photo, ok := asMap(photos[0]); ok {
			if u := str(photo["full_size_url"]); u != "" {
				return u
			}
			if u := str(photo["url"]); u != "" {
				return u
			}
			if thumbs, ok := asMap(photo["thumbnails"]); ok {
				if u := str(thumbs["original"]); u != "" {
					return u
				}
			}
		}
	}
	if photo, ok := asMap(item["photo"]); ok {
		if u := str(photo["full_size_url"]); u != "" {
			return u
		}
		if u := str(photo["url"]); u != "" {
			return u
		}
	}
	if u := str(item["photo_url"]); u != "" {
		return u
	}
	return str(item["full_size_url"])
}

func extractSeller(item models.RawItem) string {
	if u := str(item["user_login"]); u != "" {
		return u
	}
	if user, ok := asMap(item["user"]); ok {
		return str(user["login"])
	}
	return ""
}

func extractSellerRating(item models.RawItem) string {
	for _, key := range []string{"user_rating", "seller_rating"} {
		if v, ok := item[key]; ok && v != nil {
			if s := strings.TrimSpace(str(v)); s != "" {
				return s
			}
			if f := num(v); f > 0 {
				return strconv.FormatFloat(f, 'f', -1, 64)
			}
		}
	}
	if user, ok := asMap(item["user"]); ok {
		if f := num(user["feedback_reputation"]); f > 0 {
			return strconv.FormatFloat(f, 'f', 2, 64)
		}
	}
	return "Unknown"
}

func extractLocation(item models.RawItem) string {
	city := str(item["city"])
	country := str(item["country"])
	if city != "" && country != "" {
		return city + ", " + country
	}
	if city != "" {
		return city
	}
	return country
}

func (n *Normalizer) absolutizeURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return n.baseURL + u
}

// normalizeText strips leading/trailing whitespace and collapses internal
// whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func asMap(v any) (models.RawItem, bool) {
	if m, ok := v.(map[string]any); ok {
		return models.RawItem(m), true
	}
	if m, ok := v.(models.RawItem); ok {
		return m, true
	}
	return nil, false
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

func num(v any) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case int:
		return float64(f)
	case int64:
		return float64(f)
	case json.Number:
		val, err := f.Float64()
		if err != nil {
			return 0
		}
		return val
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(f), ",", "")
		val, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return val
	default:
		return 0
	}
}
