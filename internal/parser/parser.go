package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Houeta/recom-feed/internal/catalog"
	"github.com/Houeta/recom-feed/internal/models"
	"github.com/PuerkitoBio/goquery"
)

var (
	errBadScore = errors.New("relevance score outside [0,1]")
	errBadPrice = errors.New("price has no digits")
)

// Parser is a catalog source that scrapes a ranked product table from a web page.
type Parser struct {
	log     *slog.Logger
	client  *http.Client
	destURL string
}

func NewParser(log *slog.Logger, destinationURL string) *Parser {
	return &Parser{log: log, destURL: destinationURL, client: http.DefaultClient}
}

// FetchRecommendations downloads the product table and returns it ranked by relevance.
func (p *Parser) FetchRecommendations(ctx context.Context, userID string) ([]models.Product, error) {
	resp, err := p.getHTMLResponse(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get html response: %w", err)
	}
	defer resp.Body.Close()

	products, err := p.parseTableResponse(ctx, resp.Body)
	if err != nil {
		return nil, err
	}
	catalog.SortByRelevance(products)

	return products, nil
}

func (p *Parser) getHTMLResponse(ctx context.Context, userID string) (*http.Response, error) {
	reqURL, err := url.Parse(p.destURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse destination URL %s: %w", p.destURL, err)
	}

	if userID != "" {
		query := reqURL.Query()
		query.Set("user", userID)
		reqURL.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request %s: %w", reqURL.String(), err)
	}

	req.Header.Add("User-Agent", "Mozilla/5.0 (compatible; GoHttpClient/1.0)")

	p.log.DebugContext(ctx, "Send request", "method", req.Method, "URL", req.URL, "header", req.Header)

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", p.destURL, err)
	}

	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("status code error: [%d] %s", res.StatusCode, res.Status)
	}

	p.log.InfoContext(ctx, "Successfully received http response", "status code", res.StatusCode)

	return res, nil
}

func (p *Parser) parseTableResponse(ctx context.Context, inp io.Reader) ([]models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(inp)
	if err != nil {
		return nil, fmt.Errorf("data cannot be parsed as HTML: %w", err)
	}

	var products []models.Product
	numberOfCells := 6

	doc.Find(".table-bordered tbody tr").Each(func(idx int, s *goquery.Selection) {
		cells := s.Find("td")

		if cells.Length() != numberOfCells {
			p.log.WarnContext(ctx, "table row has insufficient cells", "index", idx, "length", cells.Length())
			return
		}

		cell := func(i int) string { return strings.TrimSpace(cells.Eq(i).Text()) }

		product, err := newProduct(cell(0), cell(1), cell(2), cell(3), cell(4), cell(5))
		if err != nil {
			p.log.WarnContext(ctx, "skipping malformed product row", "index", idx, "error", err)
			return
		}
		if src, ok := cells.Eq(3).Find("img").Attr("src"); ok { //nolint:mnd // image column
			product.Image = src
		}

		p.log.DebugContext(ctx, "Parsed product", "ID", product.ID, "Price", product.Price, "Score", product.RelevanceScore)
		products = append(products, product)
	})

	return products, nil
}

func newProduct(id, title, price, image, likes, score string) (models.Product, error) {
	if id == "" {
		return models.Product{}, errors.New("empty product id")
	}

	parsedPrice, err := parsePrice(price)
	if err != nil {
		return models.Product{}, err
	}

	likeCount, err := strconv.Atoi(likes)
	if err != nil || likeCount < 0 {
		return models.Product{}, fmt.Errorf("invalid like count %q", likes)
	}

	parsedScore, err := parseScore(score)
	if err != nil {
		return models.Product{}, err
	}

	return models.Product{
		ID:             id,
		Title:          title,
		Price:          parsedPrice,
		Image:          image,
		LikeCount:      likeCount,
		Comments:       []models.Comment{},
		RelevanceScore: parsedScore,
	}, nil
}

// parsePrice accepts amounts like "199", "Rs. 199", "₹8,695" or "$24.50".
// Text around the number is ignored. The last separator is the decimal point
// when one or two digits follow it, every other separator groups thousands.
func parsePrice(s string) (float64, error) {
	first := strings.IndexFunc(s, isDigit)
	if first < 0 {
		return 0, fmt.Errorf("%w: %q", errBadPrice, s)
	}
	number := s[first : strings.LastIndexFunc(s, isDigit)+1]

	whole, frac := number, ""
	if i := strings.LastIndexAny(number, ".,"); i >= 0 && len(number)-i-1 <= 2 {
		whole, frac = number[:i], number[i+1:]
	}

	digits := strings.Map(func(r rune) rune {
		if isDigit(r) {
			return r
		}
		return -1
	}, whole)
	if frac != "" {
		digits += "." + frac
	}

	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}

	return v, nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// parseScore accepts either a fraction ("0.93") or a percentage ("93%").
func parseScore(s string) (float64, error) {
	percent := strings.HasSuffix(s, "%")

	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid score %q: %w", s, err)
	}
	if percent {
		v /= 100
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("%w: %q", errBadScore, s)
	}

	return v, nil
}
