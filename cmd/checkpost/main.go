package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/smolin/antiplag/internal/config"
	"github.com/smolin/antiplag/internal/detector"
	"github.com/smolin/antiplag/internal/domain"
	"github.com/smolin/antiplag/internal/imagesim"
	applog "github.com/smolin/antiplag/internal/logger"
	"github.com/smolin/antiplag/internal/textsim"
)

// checkpost runs a single pair comparison with the same engine the daemon
// uses, for spot-checking thresholds against real post content.
func main() {
	var (
		originalText   = flag.String("original-text", "", "Text of the suspected original post")
		targetText     = flag.String("target-text", "", "Text of the post under suspicion")
		originalImages = flag.String("original-images", "", "Comma-separated image URLs of the original post")
		targetImages   = flag.String("target-images", "", "Comma-separated image URLs of the target post")
		pretty         = flag.Bool("pretty", true, "Indent the JSON output")
	)
	flag.Parse()

	if *originalText == "" && *originalImages == "" {
		log.Fatal("at least -original-text or -original-images is required")
	}
	if *targetText == "" && *targetImages == "" {
		log.Fatal("at least -target-text or -target-images is required")
	}

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applog.SetDefaultLogger(applog.NewDefault())
	defer applog.Sync()

	guard := detector.NewGuard(cfg.Detector.MinTextLength)
	engine := detector.NewEngine(
		guard,
		textsim.NewComparator(cfg.Detector.TextSimilarityThreshold, cfg.Detector.MinTextLength),
		imagesim.NewComparator(&imagesim.Config{
			HammingThreshold: cfg.Detector.ImageHammingThreshold,
			FetchTimeout:     cfg.Detector.ImageFetchTimeout,
		}),
	)

	now := time.Now().Unix()
	original := makePost(1, *originalText, splitURLs(*originalImages), now-1)
	target := makePost(2, *targetText, splitURLs(*targetImages), now)

	verdict := engine.Check(context.Background(), original, target, detector.Options{
		CheckText:   *originalText != "" && *targetText != "",
		CheckImages: *originalImages != "" && *targetImages != "",
	})

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(verdict); err != nil {
		log.Fatalf("Failed to encode verdict: %v", err)
	}
	fmt.Fprintf(os.Stderr, "recommendation: %s\n", verdict.Recommendation)
}

func splitURLs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// makePost wraps raw CLI inputs in the wire shape the engine expects. Each
// URL becomes a single-size photo attachment.
func makePost(id int64, text string, imageURLs []string, date int64) *domain.Post {
	p := &domain.Post{
		PostID:  id,
		OwnerID: -1,
		Text:    text,
		Date:    date,
	}
	for _, u := range imageURLs {
		p.Attachments = append(p.Attachments, domain.Attachment{
			Type: "photo",
			Photo: &domain.Photo{
				Sizes: []domain.PhotoSize{{URL: u, Width: 1}},
			},
		})
	}
	return p
}
