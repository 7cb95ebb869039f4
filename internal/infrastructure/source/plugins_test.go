package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPluginFetcherPagesUntilEmpty(t *testing.T) {
	var batches []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var calls []ajaxCall
		if err := json.NewDecoder(r.Body).Decode(&calls); err != nil || len(calls) != 1 {
			t.Errorf("bad request body: %v", err)
			return
		}
		if calls[0].MethodName != pluginsBatchMethod {
			t.Errorf("unexpected method %q", calls[0].MethodName)
		}
		batch := int(calls[0].Args["batch"].(float64))
		batches = append(batches, batch)

		switch batch {
		case 0:
			fmt.Fprint(w, `[{"error":false,"data":{"grid":{"plugins":[
				{"id":1,"name":"Attendance","shortdescription":"Track attendance","url":"https://moodle.org/plugins/mod_attendance","plugintype":{"type":"mod"}},
				{"id":2,"name":"Mystery","shortdescription":"?","url":"https://moodle.org/plugins/zz_mystery","plugintype":{"type":"zz"}}
			]}}}]`)
		case 1:
			fmt.Fprint(w, `[{"error":false,"data":{"grid":{"plugins":[
				{"id":3,"name":"Moove","shortdescription":"Theme","url":"https://moodle.org/plugins/theme_moove","plugintype":{"type":"theme"}}
			]}}}]`)
		default:
			fmt.Fprint(w, `[{"error":false,"data":{"grid":{"plugins":[]}}}]`)
		}
	}))
	defer srv.Close()

	fetcher := NewPluginFetcher(srv.Client(), srv.URL, 1000, nil)
	plugins, err := fetcher.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(batches) != 3 {
		t.Fatalf("expected 3 batch requests, got %v", batches)
	}
	if len(plugins) != 2 {
		t.Fatalf("expected 2 plugins with known paths, got %+v", plugins)
	}
	if plugins[0].Path != "/mod/attendance/" || plugins[0].Description != "Track attendance" {
		t.Errorf("unexpected first plugin %+v", plugins[0])
	}
	if plugins[1].Path != "/theme/moove/" || !plugins[1].IsTheme() {
		t.Errorf("unexpected second plugin %+v", plugins[1])
	}
}

func TestPluginFetcherAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"error":true,"exception":{"message":"invalid batch"}}]`)
	}))
	defer srv.Close()

	fetcher := NewPluginFetcher(srv.Client(), srv.URL, 1000, nil)
	if _, err := fetcher.Fetch(context.Background(), nil); err == nil {
		t.Fatal("expected API error to surface")
	}
}
