package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"mdpva/domain"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
)

var geoPincodeRe = regexp.MustCompile(`^[0-9]{6}$`)

type geoClient struct {
	http    *retryablehttp.Client
	baseURL string
}

// NewGeoLookup returns a client for the India Post pincode directory.
func NewGeoLookup(baseURL string) domain.GeoLookup {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil

	return &geoClient{
		http:    client,
		baseURL: baseURL,
	}
}

type postalResponse struct {
	Status     string `json:"Status"`
	PostOffice []struct {
		Name     string `json:"Name"`
		District string `json:"District"`
		State    string `json:"State"`
	} `json:"PostOffice"`
}

func (gc *geoClient) Lookup(ctx context.Context, pincode string) (*domain.PincodeLookup, error) {
	if !geoPincodeRe.MatchString(pincode) {
		return nil, domain.ErrInvalidPincode
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/pincode/%s", gc.baseURL, pincode), nil)
	if err != nil {
		return nil, fmt.Errorf("could not build pincode request: %v", err)
	}

	resp, err := gc.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pincode lookup failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read pincode response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pincode lookup failed with status %d", resp.StatusCode)
	}

	var payload []postalResponse
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("could not decode pincode response: %v", err)
	}

	if len(payload) == 0 || payload[0].Status != "Success" || len(payload[0].PostOffice) == 0 {
		return nil, domain.ErrInvalidPincode
	}

	result := payload[0]
	out := &domain.PincodeLookup{
		Pincode: pincode,
		City:    result.PostOffice[0].District,
		State:   result.PostOffice[0].State,
	}
	for _, po := range result.PostOffice {
		out.Areas = append(out.Areas, po.Name)
	}
	return out, nil
}
