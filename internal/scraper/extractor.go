package scraper

import (
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParsePrice normalizes a price text like "R$ 150.000,00" to a non-negative
// decimal. The currency symbol and thousands separators are stripped and the
// decimal comma converted. ok is false when the text does not parse.
func ParsePrice(text string) (float64, bool) {
	normalized := strings.TrimSpace(text)
	normalized = strings.ReplaceAll(normalized, "R$", "")
	normalized = strings.ReplaceAll(normalized, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	normalized = strings.TrimSpace(normalized)

	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// ParseArea normalizes an area text like "500m²" following the same decimal
// comma rule as prices.
func ParseArea(text string) (float64, bool) {
	normalized := strings.TrimSpace(text)
	normalized = strings.ReplaceAll(normalized, "m²", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	normalized = strings.TrimSpace(normalized)

	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// PricePerM2 derives the price-per-area value, rounded to two decimals.
// Zero area yields zero rather than a division error.
func PricePerM2(price, area float64) float64 {
	if area <= 0 {
		return 0
	}
	return math.Round(price/area*100) / 100
}

// ExtractCard parses one listing card into a record. Price and area are
// required by the markup contract: an absent element rejects the card, an
// unparseable text rejects it with a distinct reason, and a parsed zero
// rejects it by the price/area invariant. Title, address and link absence is
// filled with sentinels instead. The sequence id is not assigned here.
func ExtractCard(card *goquery.Selection, page int) (*Listing, RejectReason) {
	priceEl := card.Find(PriceSelector).First()
	areaEl := card.Find(AreaSelector).First()
	if priceEl.Length() == 0 || areaEl.Length() == 0 {
		return nil, RejectMissingField
	}

	price, priceOK := ParsePrice(priceEl.Text())
	area, areaOK := ParseArea(areaEl.Text())
	if !priceOK || !areaOK {
		return nil, RejectParseFailure
	}
	if price == 0 || area == 0 {
		return nil, RejectZeroValue
	}

	title := strings.TrimSpace(card.Find(TitleSelector).First().Text())
	if title == "" {
		title = TitleUnavailable
	}

	address := strings.TrimSpace(card.Find(AddressSelector).First().Text())
	if address == "" {
		address = AddressUnavailable
	}

	link, _ := card.Find(LinkSelector).First().Attr("href")

	return &Listing{
		Title:      title,
		Address:    address,
		AreaM2:     area,
		Price:      price,
		PricePerM2: PricePerM2(price, area),
		Link:       strings.TrimSpace(link),
		Page:       page,
	}, RejectNone
}
