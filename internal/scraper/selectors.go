package scraper

import "fmt"

// CSS selectors for the results site's markup contract.
// Centralising them makes future updates trivial.
const (
	// Results page
	ResultsContainerSelector = `div.listings-wrapper, div.ListingCard_result-card__ie9wP`
	ListingCardSelector      = `div.ListingCard_result-card__ie9wP`

	// Card fields
	PriceSelector   = `[data-cy="rp-cardProperty-price-txt"] p:first-child`
	AreaSelector    = `[data-cy="rp-cardProperty-propertyArea-txt"]`
	TitleSelector   = `span.property-card__title`
	AddressSelector = `span[class*="address"]`
	LinkSelector    = `a[class*="property-card__content-link"]`

	// Label of the pagination control in the target market's locale
	NextPageLabel = "Próxima página"
)

// Sentinel values for optional card fields
const (
	TitleUnavailable   = "Título não disponível"
	AddressUnavailable = "Endereço não disponível"
)

// Page scripts evaluated inside the session
const (
	// containerPresentScript probes for the results container
	containerPresentScript = `!!document.querySelector('div.listings-wrapper, div.ListingCard_result-card__ie9wP')`

	// containerTextScript reads the container header text used to resolve
	// locality and region once per run
	containerTextScript = `(() => {
		const el = document.querySelector('div.listings-wrapper');
		return el ? el.innerText.trim() : '';
	})()`

	// cardCountScript counts rendered listing cards
	cardCountScript = `document.querySelectorAll('div.ListingCard_result-card__ie9wP').length`

	// cardsHTMLScript returns the markup holding the current page's cards.
	// Falls back to wrapping the bare cards when no wrapper element exists.
	cardsHTMLScript = `(() => {
		const wrapper = document.querySelector('div.listings-wrapper');
		if (wrapper) return wrapper.outerHTML;
		const cards = document.querySelectorAll('div.ListingCard_result-card__ie9wP');
		if (!cards.length) return '';
		return '<div>' + Array.from(cards).map(el => el.outerHTML).join('') + '</div>';
	})()`
)

// ControlMatch is one way of locating the "next page" control. Strategies
// are tried in order and the first that resolves to an element wins.
type ControlMatch struct {
	Element string // tag name: "button" or "a"
	ByTitle bool   // match the title attribute instead of the label text
	Label   string
}

// NextControlStrategies returns the ordered strategy list for the control
// carrying the given label: label text in both supported element kinds,
// then the accessible-title attribute on each.
func NextControlStrategies(label string) []ControlMatch {
	return []ControlMatch{
		{Element: "button", Label: label},
		{Element: "a", Label: label},
		{Element: "button", ByTitle: true, Label: label},
		{Element: "a", ByTitle: true, Label: label},
	}
}

// FinderScript returns a JS expression resolving to the control or null
func (m ControlMatch) FinderScript() string {
	if m.ByTitle {
		return fmt.Sprintf(`document.querySelector('%s[title=%q]')`, m.Element, m.Label)
	}
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).find(el => el.textContent.includes(%q))`,
		m.Element, m.Label)
}

// ClickScript returns a JS expression that clicks the control if present and
// reports whether it did. The click is dispatched at script level so overlay
// elements cannot intercept a synthetic pointer event.
func (m ControlMatch) ClickScript() string {
	return fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el.click();
		return true;
	})()`, m.FinderScript())
}
