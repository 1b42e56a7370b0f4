package emh

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/ethicalmeat/backend/internal/domain"
)

var (
	tierRegex     = regexp.MustCompile(`(?i)\b(TOP|OK|UNCOOL|NO GO)\b`)
	stepsRegex    = regexp.MustCompile(`(?i)(\d+)\s+steps?\s+to\s+go`)
	postGridRegex = regexp.MustCompile(`^post-grid-\d+`)
)

// animalKeywords gate which links on a label page count as animal product
// pages.
var animalKeywords = []string{
	"rindfleisch", "kalbfleisch", "poulet", "schweinefleisch", "eier", "milch",
}

// Scraper harvests welfare ratings from the rating website. Fetched pages are
// cached on disk under an URL-hash filename so repeated harvests do not hit
// the site again.
type Scraper struct {
	httpClient  *http.Client
	baseURL     string
	cacheDir    string
	rateLimiter *rate.Limiter
}

// NewScraper creates a scraper. An empty cacheDir disables the HTML cache.
func NewScraper(baseURL, cacheDir string) *Scraper {
	return &Scraper{
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		baseURL:  baseURL,
		cacheDir: cacheDir,
		// one request per second against the public site
		rateLimiter: rate.NewLimiter(rate.Limit(1), 1),
	}
}

func (s *Scraper) cachePath(pageURL string) string {
	if s.cacheDir == "" {
		return ""
	}
	return filepath.Join(s.cacheDir, fmt.Sprintf("%x.html", md5.Sum([]byte(pageURL))))
}

// getHTML fetches a page, serving from the disk cache when possible.
func (s *Scraper) getHTML(ctx context.Context, pageURL string) (string, error) {
	path := s.cachePath(pageURL)
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return string(data), nil
		}
	}

	if err := s.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ethicalmeat-scraper/0.1")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", pageURL, err)
	}

	if path != "" {
		if err := os.MkdirAll(s.cacheDir, 0o755); err == nil {
			os.WriteFile(path, body, 0o644)
		}
	}

	return string(body), nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findAll walks the tree depth-first collecting nodes the predicate accepts.
func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if pred(node) {
			out = append(out, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	nodes := findAll(n, pred)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func isElement(n *html.Node, name string) bool {
	return n.Type == html.ElementNode && n.Data == name
}

// nodeText collects the text content of a subtree, whitespace-normalized.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func (s *Scraper) resolveURL(href string) string {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// DiscoverLabelURLs collects the label page links from the label index.
func (s *Scraper) DiscoverLabelURLs(ctx context.Context) ([]string, error) {
	indexURL := s.baseURL + "/label-und-marken/"
	page, err := s.getHTML(ctx, indexURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing label index: %w", err)
	}

	seen := make(map[string]struct{})
	for _, a := range findAll(doc, func(n *html.Node) bool { return isElement(n, "a") }) {
		href := attr(a, "href")
		if href == "" || !strings.Contains(href, "/label-") {
			continue
		}
		seen[s.resolveURL(href)] = struct{}{}
	}

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls, nil
}

// ProductLink is one animal product reference found on a label page.
type ProductLink struct {
	Text   string
	Animal string
	URL    string
}

// LabelPage is the parsed content of one label page.
type LabelPage struct {
	URL      string
	Title    string
	Products []ProductLink
}

// ParseLabelPage extracts the label title and the animal product links. The
// title comes from the <title> tag since label pages carry no h1; the site
// suffix and the "Label " prefix are stripped. Product links live in a
// post-grid div and must carry an animal keyword in their URL.
func (s *Scraper) ParseLabelPage(ctx context.Context, pageURL string) (*LabelPage, error) {
	page, err := s.getHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing label page: %w", err)
	}

	result := &LabelPage{URL: pageURL}

	if titleNode := findFirst(doc, func(n *html.Node) bool { return isElement(n, "title") }); titleNode != nil {
		title := nodeText(titleNode)
		if idx := strings.Index(title, " – "); idx >= 0 {
			title = title[:idx]
		}
		result.Title = strings.TrimPrefix(title, "Label ")
	}

	grid := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" && postGridRegex.MatchString(attr(n, "id"))
	})
	if grid == nil {
		return result, nil
	}

	for _, a := range findAll(grid, func(n *html.Node) bool { return isElement(n, "a") }) {
		href := attr(a, "href")
		if href == "" || !containsAnimalKeyword(href) {
			continue
		}

		text := nodeText(a)
		// image links carry no usable text
		if len(text) < 5 {
			continue
		}

		link := ProductLink{
			Text: text,
			URL:  s.resolveURL(href),
		}
		for _, animal := range animalKeywords {
			if strings.HasPrefix(strings.ToLower(text), animal) || strings.Contains(href, "/"+animal+"-") {
				link.Animal = animal
				break
			}
		}

		result.Products = append(result.Products, link)
	}

	return result, nil
}

func containsAnimalKeyword(href string) bool {
	for _, animal := range animalKeywords {
		if strings.Contains(href, animal) {
			return true
		}
	}
	return false
}

// ProductPage is the parsed content of one animal product page.
type ProductPage struct {
	URL       string
	Title     string
	Animal    string
	Tier      domain.Tier
	StepsToGo *int
}

// ParseProductPage extracts the rating tier and the remaining improvement
// steps from an animal product page.
func (s *Scraper) ParseProductPage(ctx context.Context, pageURL string) (*ProductPage, error) {
	page, err := s.getHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing product page: %w", err)
	}

	result := &ProductPage{URL: pageURL}

	if h1 := findFirst(doc, func(n *html.Node) bool { return isElement(n, "h1") }); h1 != nil {
		result.Title = nodeText(h1)
	}

	content := findFirst(doc, func(n *html.Node) bool { return isElement(n, "article") })
	if content == nil {
		content = doc
	}
	text := nodeText(content)

	if m := tierRegex.FindStringSubmatch(text); m != nil {
		result.Tier = domain.Tier(strings.ToUpper(m[1]))
	}
	if m := stepsRegex.FindStringSubmatch(text); m != nil {
		if steps, err := strconv.Atoi(m[1]); err == nil {
			result.StepsToGo = &steps
		}
	}

	for _, animal := range animalKeywords {
		if strings.HasPrefix(strings.ToLower(result.Title), animal) {
			result.Animal = animal
			break
		}
	}
	if result.Animal == "" {
		for _, animal := range animalKeywords {
			if strings.Contains(pageURL, "/"+animal+"-") || strings.Contains(pageURL, "/"+animal+"/") {
				result.Animal = animal
				break
			}
		}
	}

	return result, nil
}

// HarvestAll walks every label and its animal product pages, producing one
// rating row per (label, animal) combination. Errors on individual pages are
// logged and skipped so one broken page does not abort the harvest.
func (s *Scraper) HarvestAll(ctx context.Context) ([]domain.RatingRow, error) {
	labelURLs, err := s.DiscoverLabelURLs(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[SCRAPER] Found %d labels", len(labelURLs))

	var rows []domain.RatingRow
	for i, labelURL := range labelURLs {
		log.Printf("[SCRAPER] [%d/%d] Processing: %s", i+1, len(labelURLs), labelURL)

		labelPage, err := s.ParseLabelPage(ctx, labelURL)
		if err != nil {
			log.Printf("[SCRAPER] Error parsing label page %s: %v", labelURL, err)
			continue
		}

		for _, product := range labelPage.Products {
			productPage, err := s.ParseProductPage(ctx, product.URL)
			if err != nil {
				log.Printf("[SCRAPER] Error parsing product page %s: %v", product.URL, err)
				continue
			}

			animal := product.Animal
			if animal == "" {
				animal = productPage.Animal
			}

			rows = append(rows, domain.RatingRow{
				Label:        labelPage.Title,
				Animal:       animal,
				Tier:         productPage.Tier,
				StepsToGo:    productPage.StepsToGo,
				ProductTitle: productPage.Title,
				ProductURL:   productPage.URL,
				LabelURL:     labelURL,
			})
		}
	}

	return rows, nil
}
