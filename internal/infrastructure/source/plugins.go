package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
	"github.com/khanhnv2901/moodscan/internal/domain/snapshot"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const pluginsBatchMethod = "local_plugins_get_plugins_batch"

// maxPluginBatches stops a misbehaving API from paging forever.
const maxPluginBatches = 1000

type ajaxCall struct {
	Index      int            `json:"index"`
	MethodName string         `json:"methodname"`
	Args       map[string]any `json:"args"`
}

// PluginFetcher pages through the plugins directory API.
type PluginFetcher struct {
	client  Doer
	apiURL  string
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

// NewPluginFetcher creates a fetcher for the AJAX endpoint at apiURL.
func NewPluginFetcher(client Doer, apiURL string, ratePerSecond int, logger *zap.SugaredLogger) *PluginFetcher {
	if apiURL == "" {
		apiURL = DefaultPluginsAPIURL
	}
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &PluginFetcher{
		client:  client,
		apiURL:  apiURL,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		logger:  logger,
	}
}

// Fetch requests batches until one comes back empty. Entries whose type has no
// known install path are left out.
func (f *PluginFetcher) Fetch(ctx context.Context, progress snapshot.ProgressFunc) ([]catalog.Plugin, error) {
	plugins := make([]catalog.Plugin, 0)

	for batch := 0; batch < maxPluginBatches; batch++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		body, err := f.batch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("retrieve plugin batch %d: %w", batch+1, err)
		}

		response := gjson.GetBytes(body, "0")
		if response.Get("error").Bool() {
			return nil, fmt.Errorf("plugins API error: %s", response.Get("exception.message").String())
		}
		entries := response.Get("data.grid.plugins").Array()
		if len(entries) == 0 {
			return plugins, nil
		}

		for _, e := range entries {
			p, ok := catalog.NewPlugin(
				e.Get("id").Int(),
				e.Get("plugintype.type").String(),
				e.Get("name").String(),
				e.Get("shortdescription").String(),
				e.Get("url").String(),
			)
			if !ok {
				f.logger.Debugw("plugin with unknown install path skipped", "name", e.Get("name").String(), "type", e.Get("plugintype.type").String())
				continue
			}
			plugins = append(plugins, p)
		}

		if progress != nil {
			progress(batch+1, 0)
		}
	}
	return nil, fmt.Errorf("plugins API returned more than %d batches", maxPluginBatches)
}

func (f *PluginFetcher) batch(ctx context.Context, i int) ([]byte, error) {
	payload, err := json.Marshal([]ajaxCall{{
		Index:      0,
		MethodName: pluginsBatchMethod,
		Args:       map[string]any{"query": "", "batch": i},
	}})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, f.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return fetch(ctx, f.client, req)
}
