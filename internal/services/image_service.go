package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/adhyankumar740-cloud/Game/pkg/errors"
)

type ImageConfig struct {
	PexelsURL      string
	PexelsKey      string
	StableHordeURL string
	StableHordeKey string
	PollInterval   time.Duration
	PollTimeout    time.Duration
}

// ImageService proxies Pexels photo search and Stable Horde generation.
type ImageService struct {
	client *http.Client
	cfg    ImageConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewImageService(cfg ImageConfig) *ImageService {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 120 * time.Second
	}
	return &ImageService{
		client: &http.Client{Timeout: 10 * time.Second},
		cfg:    cfg,
		sleep:  sleepContext,
	}
}

func (s *ImageService) SearchEnabled() bool {
	return s.cfg.PexelsKey != ""
}

func (s *ImageService) getJSON(ctx context.Context, rawURL string, header http.Header, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to build request")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	return s.do(req, dest)
}

func (s *ImageService) do(req *http.Request, dest interface{}) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeUpstream, "image API request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(errors.ErrCodeUpstream, fmt.Sprintf("image API returned %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeUpstream, "failed to decode image API response")
	}
	return nil
}

type pexelsResponse struct {
	Photos []struct {
		Src struct {
			Large string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

// SearchPhoto returns the URL of a random matching photo, NOT_FOUND when the
// search has no results.
func (s *ImageService) SearchPhoto(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "15")

	header := http.Header{}
	header.Set("Authorization", s.cfg.PexelsKey)

	var payload pexelsResponse
	if err := s.getJSON(ctx, s.cfg.PexelsURL+"?"+params.Encode(), header, &payload); err != nil {
		return "", err
	}
	if len(payload.Photos) == 0 {
		return "", errors.New(errors.ErrCodeNotFound, "no images found")
	}
	return payload.Photos[rand.Intn(len(payload.Photos))].Src.Large, nil
}

type hordeRequest struct {
	Prompt string      `json:"prompt"`
	Params hordeParams `json:"params"`
}

type hordeParams struct {
	N      int `json:"n"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type hordeStatus struct {
	Done        bool `json:"done"`
	Generations []struct {
		Img string `json:"img"`
	} `json:"generations"`
}

func (s *ImageService) hordeHeader() http.Header {
	header := http.Header{}
	header.Set("apikey", s.cfg.StableHordeKey)
	header.Set("Client-Agent", "TelegramBot/1.0")
	return header
}

// Generate submits prompt to Stable Horde and polls until the image is ready
// or the poll timeout passes.
func (s *ImageService) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(hordeRequest{Prompt: prompt, Params: hordeParams{N: 1, Width: 512, Height: 512}})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode generation request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.StableHordeURL+"/generate/async", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to build generation request")
	}
	req.Header = s.hordeHeader()
	req.Header.Set("Content-Type", "application/json")

	var submitted struct {
		ID string `json:"id"`
	}
	if err := s.do(req, &submitted); err != nil {
		return "", err
	}
	if submitted.ID == "" {
		return "", errors.New(errors.ErrCodeUpstream, "generation request was not accepted")
	}

	deadline := time.Now().Add(s.cfg.PollTimeout)
	for time.Now().Before(deadline) {
		if err := s.sleep(ctx, s.cfg.PollInterval); err != nil {
			return "", err
		}

		var check hordeStatus
		if err := s.getJSON(ctx, s.cfg.StableHordeURL+"/generate/check/"+submitted.ID, s.hordeHeader(), &check); err != nil {
			return "", err
		}
		if !check.Done {
			continue
		}

		var status hordeStatus
		if err := s.getJSON(ctx, s.cfg.StableHordeURL+"/generate/status/"+submitted.ID, s.hordeHeader(), &status); err != nil {
			return "", err
		}
		if len(status.Generations) == 0 || status.Generations[0].Img == "" {
			return "", errors.New(errors.ErrCodeUpstream, "generation finished without an image")
		}
		return status.Generations[0].Img, nil
	}

	return "", errors.New(errors.ErrCodeUpstream, "generation timed out")
}
