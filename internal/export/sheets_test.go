package export

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCreateCampaignSheet_MasterWorksheetWithCollisionRetry(t *testing.T) {
	var worksheetTitles []string
	var valuesUploaded [][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "POST" && r.URL.Path == "/spreadsheets/master-1/worksheets":
			var body struct {
				Title string `json:"title"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			worksheetTitles = append(worksheetTitles, body.Title)
			if len(worksheetTitles) == 1 {
				// First title already taken.
				w.WriteHeader(http.StatusConflict)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"url": "https://sheets.example/master-1"})

		case r.Method == "PUT" && r.URL.Path == "/spreadsheets/master-1/values":
			var body struct {
				Values [][]string `json:"values"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			valuesUploaded = body.Values
			json.NewEncoder(w).Encode(map[string]string{})

		case r.Method == "POST" && r.URL.Path == "/spreadsheets/master-1/format":
			json.NewEncoder(w).Encode(map[string]string{})

		default:
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewSheetsClient(server.URL, "key", "master-1")

	url, err := client.CreateCampaignSheet(context.Background(), testBundle())
	if err != nil {
		t.Fatalf("CreateCampaignSheet failed: %v", err)
	}
	if url != "https://sheets.example/master-1" {
		t.Errorf("Unexpected sheet URL: %s", url)
	}

	if len(worksheetTitles) != 2 {
		t.Fatalf("Expected collision retry, got %d attempts", len(worksheetTitles))
	}
	if worksheetTitles[0] != "окна" {
		t.Errorf("First attempt must use the campaign name, got %q", worksheetTitles[0])
	}
	if !strings.HasPrefix(worksheetTitles[1], "окна_") {
		t.Errorf("Retry must suffix the title, got %q", worksheetTitles[1])
	}

	if len(valuesUploaded) != 2 {
		t.Fatalf("Expected header + 1 row uploaded, got %d", len(valuesUploaded))
	}
	if valuesUploaded[0][0] != "Группа" {
		t.Errorf("Unexpected header row: %v", valuesUploaded[0])
	}
}

func TestCreateCampaignSheet_StandaloneSharedLinkReadable(t *testing.T) {
	var shared bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "POST" && r.URL.Path == "/spreadsheets":
			json.NewEncoder(w).Encode(map[string]string{
				"spreadsheet_id": "sp-7",
				"url":            "https://sheets.example/sp-7",
			})
		case r.Method == "POST" && r.URL.Path == "/spreadsheets/sp-7/permissions":
			var body struct {
				Type string `json:"type"`
				Role string `json:"role"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			shared = body.Type == "anyone" && body.Role == "reader"
			json.NewEncoder(w).Encode(map[string]string{})
		case r.Method == "PUT" && r.URL.Path == "/spreadsheets/sp-7/values":
			json.NewEncoder(w).Encode(map[string]string{})
		case r.Method == "POST" && r.URL.Path == "/spreadsheets/sp-7/format":
			json.NewEncoder(w).Encode(map[string]string{})
		default:
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewSheetsClient(server.URL, "key", "")

	url, err := client.CreateCampaignSheet(context.Background(), testBundle())
	if err != nil {
		t.Fatalf("CreateCampaignSheet failed: %v", err)
	}
	if url != "https://sheets.example/sp-7" {
		t.Errorf("Unexpected sheet URL: %s", url)
	}
	if !shared {
		t.Error("Standalone spreadsheet must be shared link-readable")
	}
}

func TestCreateCampaignSheet_CyrillicTitleTruncatedOnRuneBoundary(t *testing.T) {
	var gotTitle string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "POST" && r.URL.Path == "/spreadsheets/master-1/worksheets":
			var body struct {
				Title string `json:"title"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			gotTitle = body.Title
			json.NewEncoder(w).Encode(map[string]string{"url": "https://sheets.example/master-1"})
		default:
			json.NewEncoder(w).Encode(map[string]string{})
		}
	}))
	defer server.Close()

	client := NewSheetsClient(server.URL, "key", "master-1")

	bundle := testBundle()
	bundle.Name = strings.Repeat("окна", 20)

	if _, err := client.CreateCampaignSheet(context.Background(), bundle); err != nil {
		t.Fatalf("CreateCampaignSheet failed: %v", err)
	}

	if !utf8.ValidString(gotTitle) {
		t.Errorf("Truncated title is not valid UTF-8: %q", gotTitle)
	}
	if n := utf8.RuneCountInString(gotTitle); n != 30 {
		t.Errorf("Expected 30 characters, got %d (%q)", n, gotTitle)
	}
}

func TestCreateCampaignSheet_EmptyBundleIsError(t *testing.T) {
	client := NewSheetsClient("http://unused.invalid", "key", "")

	bundle := testBundle()
	bundle.Groups = nil

	if _, err := client.CreateCampaignSheet(context.Background(), bundle); err == nil {
		t.Fatal("Bundle with no exportable rows must be an error")
	}
}
