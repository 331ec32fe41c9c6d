package square

import (
	"context"
	"net/http"
	"time"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

// Source adapts a Client to entity.CustomerSource.
type Source struct {
	client *Client
}

func (s *Source) ListCustomers(ctx context.Context, cursor string) (*entity.CandidatePage, error) {
	resp, err := s.client.ListCustomers(ctx, cursor)
	if err != nil {
		return nil, err
	}
	return ToCandidatePage(resp), nil
}

// SourceFactory builds one Source per job from the caller's connection row. The
// HTTP client is shared; credentials are not.
type SourceFactory struct {
	ProductionURL string
	SandboxURL    string
	APIVersion    string
	HTTPClient    *http.Client
}

func NewSourceFactory(apiVersion string, timeout time.Duration) *SourceFactory {
	return &SourceFactory{
		ProductionURL: ProductionURL,
		SandboxURL:    SandboxURL,
		APIVersion:    apiVersion,
		HTTPClient:    &http.Client{Timeout: timeout},
	}
}

func (f *SourceFactory) NewSource(conn *entity.SquareConnection) entity.CustomerSource {
	baseURL := f.ProductionURL
	if conn.IsSandbox {
		baseURL = f.SandboxURL
	}
	return &Source{client: NewClient(conn.AccessToken, baseURL, f.APIVersion, f.HTTPClient)}
}
