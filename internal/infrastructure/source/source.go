// Package source downloads the official advisory corpus and the plugin catalog
// from moodle.org.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	consts "github.com/khanhnv2901/moodscan/internal/shared/constants"
)

const (
	// DefaultAdvisoriesURL is the security advisory listing.
	DefaultAdvisoriesURL = "https://moodle.org/security/"
	// DefaultPluginsAPIURL is the AJAX endpoint serving the plugins directory.
	DefaultPluginsAPIURL = "https://moodle.org/lib/ajax/service.php"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

func fetch(ctx context.Context, client Doer, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s: status %d", req.Method, req.URL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, consts.BodyReadLimitBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL, err)
	}
	return body, nil
}
